package nlp_test

import (
	"testing"

	"agentic-chatbot/internal/models"
	"agentic-chatbot/internal/nlp"
)

func TestClassifyIntentWeather(t *testing.T) {
	intent, confidence := nlp.ClassifyIntent("What's the weather in Chennai today?")

	if intent != models.IntentWeather {
		t.Errorf("Expected weather intent, got %s", intent)
	}
	if confidence != 1.0 {
		t.Errorf("Expected confidence 1.0, got %f", confidence)
	}
}

func TestClassifyIntentDocument(t *testing.T) {
	intent, _ := nlp.ClassifyIntent("What is the leave policy?")

	if intent != models.IntentDocument {
		t.Errorf("Expected document intent, got %s", intent)
	}
}

func TestClassifyIntentScheduling(t *testing.T) {
	intent, confidence := nlp.ClassifyIntent("Schedule a team review meeting tomorrow")

	if intent != models.IntentScheduling {
		t.Errorf("Expected scheduling intent, got %s", intent)
	}
	if confidence != 0.5 {
		t.Errorf("Expected confidence 0.5, got %f", confidence)
	}
}

func TestClassifyIntentDatabaseQuery(t *testing.T) {
	intent, confidence := nlp.ClassifyIntent("How many meetings do we have today?")

	if intent != models.IntentDatabaseQuery {
		t.Errorf("Expected database_query intent, got %s", intent)
	}
	if confidence != 0.75 {
		t.Errorf("Expected confidence 0.75, got %f", confidence)
	}
}

// Weather outranks scheduling when a message mentions both concerns.
func TestClassifyIntentPriority(t *testing.T) {
	intent, _ := nlp.ClassifyIntent("Schedule a meeting in London if it is sunny")

	if intent != models.IntentWeather {
		t.Errorf("Expected weather intent to win, got %s", intent)
	}
}

// Counting questions must stay with the database agent even when they mention
// team meetings.
func TestClassifyIntentCountStaysDatabase(t *testing.T) {
	intent, _ := nlp.ClassifyIntent("How many team meetings tomorrow?")

	if intent != models.IntentDatabaseQuery {
		t.Errorf("Expected database_query intent, got %s", intent)
	}
}

func TestClassifyIntentUnknown(t *testing.T) {
	for _, message := range []string{"", "   ", "asdf qwerty zxcv"} {
		intent, confidence := nlp.ClassifyIntent(message)

		if intent != models.IntentUnknown {
			t.Errorf("Expected unknown intent for %q, got %s", message, intent)
		}
		if confidence != 0 {
			t.Errorf("Expected confidence 0 for %q, got %f", message, confidence)
		}
	}
}

func TestClassifyIntentDeterministic(t *testing.T) {
	message := "Do we have any meetings this week?"

	firstIntent, firstConfidence := nlp.ClassifyIntent(message)
	for i := 0; i < 5; i++ {
		intent, confidence := nlp.ClassifyIntent(message)
		if intent != firstIntent || confidence != firstConfidence {
			t.Fatalf("Classification is not deterministic: got (%s, %f) then (%s, %f)",
				firstIntent, firstConfidence, intent, confidence)
		}
	}
}
