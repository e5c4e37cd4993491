package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"agentic-chatbot/internal/config"
	"agentic-chatbot/internal/models"
	"agentic-chatbot/internal/pkg/logger"
)

// WeatherService talks to OpenWeather. Without an API key, or when the
// upstream is failing, it degrades to deterministic mock snapshots so the
// scheduling path keeps working.
type WeatherService struct {
	config  config.WeatherConfig
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *logger.Logger
}

type coordinates struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Name string  `json:"name"`
}

var fallbackCoordinates = map[string]coordinates{
	"chennai":   {Lat: 13.0827, Lon: 80.2707, Name: "Chennai"},
	"bengaluru": {Lat: 12.9716, Lon: 77.5946, Name: "Bengaluru"},
	"london":    {Lat: 51.5074, Lon: -0.1278, Name: "London"},
	"mumbai":    {Lat: 19.0760, Lon: 72.8777, Name: "Mumbai"},
	"delhi":     {Lat: 28.7041, Lon: 77.1025, Name: "Delhi"},
}

var mockConditions = map[string]struct {
	Temp      float64
	Humidity  int
	Condition string
}{
	"chennai":   {32, 70, "Partly cloudy"},
	"bengaluru": {28, 65, "Sunny"},
	"london":    {15, 80, "Cloudy"},
	"mumbai":    {30, 75, "Humid"},
	"delhi":     {35, 60, "Clear"},
}

var badWeatherKeywords = []string{"rain", "storm", "thunderstorm", "snow", "extreme", "heavy"}

func NewWeatherService(cfg config.WeatherConfig, log *logger.Logger) *WeatherService {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "openweather",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	service := &WeatherService{
		config:  cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: breaker,
		logger:  log,
	}

	log.Info("Weather service initialized", "mode", service.Status())

	return service
}

// GetWeather returns a snapshot for the location and date keyword
// (today/tomorrow/yesterday, empty means today). Upstream failures degrade to
// mock data rather than erroring; only an unknown location is an error.
func (service *WeatherService) GetWeather(ctx context.Context, location, dateKeyword string) (*models.WeatherSnapshot, error) {
	startTime := time.Now()

	if !service.hasAPIKey() {
		return service.mockSnapshot(location, dateKeyword), nil
	}

	coords, ok := service.resolveCoordinates(ctx, location)
	if !ok {
		return nil, models.NewNotFoundError("LOCATION_NOT_FOUND", fmt.Sprintf("Location '%s' not found", location))
	}

	var snapshot *models.WeatherSnapshot
	var err error

	switch dateKeyword {
	case "tomorrow":
		snapshot, err = service.fetchForecast(ctx, coords, location)
	case "yesterday":
		snapshot = service.simulatedHistorical(location)
	default:
		snapshot, err = service.fetchCurrent(ctx, coords, location)
	}

	if err != nil {
		service.logger.LogService("weather", "get_weather", time.Since(startTime), map[string]interface{}{
			"location": location,
			"date":     dateKeyword,
		}, err)
		return service.mockSnapshot(location, dateKeyword), nil
	}

	service.logger.LogService("weather", "get_weather", time.Since(startTime), map[string]interface{}{
		"location":   location,
		"date":       dateKeyword,
		"conditions": snapshot.Conditions,
	}, nil)

	return snapshot, nil
}

// IsGoodWeather applies the scheduling rule: no bad-weather keyword,
// temperature inside [10, 35], wind at most 20 and precipitation probability
// at most 30%. When in doubt the weather counts as good.
func (service *WeatherService) IsGoodWeather(snapshot *models.WeatherSnapshot) bool {
	if snapshot == nil {
		return true
	}

	conditions := strings.ToLower(snapshot.Conditions)
	main := strings.ToLower(snapshot.Main)
	for _, keyword := range badWeatherKeywords {
		if strings.Contains(conditions, keyword) || strings.Contains(main, keyword) {
			return false
		}
	}

	if snapshot.Temperature < 10 || snapshot.Temperature > 35 {
		return false
	}
	if snapshot.WindSpeed > 20 {
		return false
	}
	if snapshot.POP > 0.3 {
		return false
	}

	return true
}

// BadWeatherReason names the condition that blocked a meeting.
func (service *WeatherService) BadWeatherReason(snapshot *models.WeatherSnapshot) string {
	if snapshot == nil {
		return "Unfavorable weather conditions"
	}

	conditions := strings.ToLower(snapshot.Conditions)
	main := strings.ToLower(snapshot.Main)

	switch {
	case strings.Contains(main, "rain") || strings.Contains(conditions, "rain"):
		return "High probability of rain"
	case strings.Contains(main, "storm") || strings.Contains(conditions, "storm"):
		return "Stormy conditions expected"
	case strings.Contains(main, "snow") || strings.Contains(conditions, "snow"):
		return "Snowfall expected"
	case snapshot.WindSpeed > 20:
		return "High wind speeds"
	case snapshot.POP > 0.3:
		return "High precipitation probability"
	case snapshot.Temperature < 10 || snapshot.Temperature > 35:
		return "Temperature outside comfortable range"
	default:
		return "Unfavorable weather conditions"
	}
}

func (service *WeatherService) Status() string {
	if !service.hasAPIKey() {
		return "mock_mode"
	}
	if service.breaker.State() == gobreaker.StateOpen {
		return "degraded"
	}
	return "connected"
}

func (service *WeatherService) HealthCheck(ctx context.Context) error {
	if service.breaker.State() == gobreaker.StateOpen {
		return fmt.Errorf("weather upstream circuit open")
	}
	return nil
}

func (service *WeatherService) hasAPIKey() bool {
	return service.config.APIKey != "" && !strings.HasPrefix(service.config.APIKey, "your_api_key")
}

func (service *WeatherService) resolveCoordinates(ctx context.Context, location string) (coordinates, bool) {
	params := url.Values{}
	params.Set("q", location)
	params.Set("appid", service.config.APIKey)
	params.Set("limit", "1")

	var results []coordinates
	if err := service.fetchJSON(ctx, service.config.GeocodeURL, params, &results); err == nil && len(results) > 0 {
		return results[0], true
	}

	lower := strings.ToLower(location)
	for city, coords := range fallbackCoordinates {
		if strings.Contains(lower, city) {
			return coords, true
		}
	}

	return coordinates{}, false
}

type owmWeatherEntry struct {
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type owmCurrentResponse struct {
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
		Pressure  int     `json:"pressure"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Weather []owmWeatherEntry `json:"weather"`
	Dt      int64             `json:"dt"`
}

type owmForecastResponse struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp     float64 `json:"temp"`
			TempMin  float64 `json:"temp_min"`
			TempMax  float64 `json:"temp_max"`
			Humidity int     `json:"humidity"`
			Pressure int     `json:"pressure"`
		} `json:"main"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Weather []owmWeatherEntry `json:"weather"`
		Pop     float64           `json:"pop"`
	} `json:"list"`
}

func (service *WeatherService) fetchCurrent(ctx context.Context, coords coordinates, location string) (*models.WeatherSnapshot, error) {
	params := url.Values{}
	params.Set("lat", fmt.Sprintf("%f", coords.Lat))
	params.Set("lon", fmt.Sprintf("%f", coords.Lon))
	params.Set("appid", service.config.APIKey)
	params.Set("units", "metric")

	var payload owmCurrentResponse
	if err := service.fetchJSON(ctx, service.config.BaseURL+"/weather", params, &payload); err != nil {
		return nil, err
	}

	snapshot := &models.WeatherSnapshot{
		Location:    location,
		Date:        "today",
		Temperature: payload.Main.Temp,
		FeelsLike:   payload.Main.FeelsLike,
		Humidity:    payload.Main.Humidity,
		Pressure:    payload.Main.Pressure,
		WindSpeed:   payload.Wind.Speed,
		Source:      "openweathermap",
		Timestamp:   time.Unix(payload.Dt, 0).Format(time.RFC3339),
	}
	if len(payload.Weather) > 0 {
		snapshot.Conditions = payload.Weather[0].Description
		snapshot.Main = payload.Weather[0].Main
		snapshot.Icon = payload.Weather[0].Icon
	}

	return snapshot, nil
}

func (service *WeatherService) fetchForecast(ctx context.Context, coords coordinates, location string) (*models.WeatherSnapshot, error) {
	params := url.Values{}
	params.Set("lat", fmt.Sprintf("%f", coords.Lat))
	params.Set("lon", fmt.Sprintf("%f", coords.Lon))
	params.Set("appid", service.config.APIKey)
	params.Set("units", "metric")

	var payload owmForecastResponse
	if err := service.fetchJSON(ctx, service.config.BaseURL+"/forecast", params, &payload); err != nil {
		return nil, err
	}
	if len(payload.List) == 0 {
		return nil, fmt.Errorf("empty forecast response")
	}

	// Pick the first slot at least 24h out, falling back to the last one.
	target := time.Now().Add(24 * time.Hour).Unix()
	entry := payload.List[len(payload.List)-1]
	for _, candidate := range payload.List {
		if candidate.Dt >= target {
			entry = candidate
			break
		}
	}

	snapshot := &models.WeatherSnapshot{
		Location:    location,
		Date:        "tomorrow",
		Temperature: entry.Main.Temp,
		TempMin:     entry.Main.TempMin,
		TempMax:     entry.Main.TempMax,
		Humidity:    entry.Main.Humidity,
		Pressure:    entry.Main.Pressure,
		WindSpeed:   entry.Wind.Speed,
		POP:         entry.Pop,
		Source:      "openweathermap",
		Timestamp:   time.Unix(entry.Dt, 0).Format(time.RFC3339),
	}
	if len(entry.Weather) > 0 {
		snapshot.Conditions = entry.Weather[0].Description
		snapshot.Main = entry.Weather[0].Main
		snapshot.Icon = entry.Weather[0].Icon
	}

	return snapshot, nil
}

// simulatedHistorical stands in for yesterday's weather; real historical data
// needs a paid subscription.
func (service *WeatherService) simulatedHistorical(location string) *models.WeatherSnapshot {
	yesterday := time.Now().AddDate(0, 0, -1)

	return &models.WeatherSnapshot{
		Location:    location,
		Date:        "yesterday",
		Temperature: 28.5,
		Humidity:    65,
		Pressure:    1013,
		WindSpeed:   12.5,
		Conditions:  "Partly cloudy",
		Main:        "Clouds",
		Source:      "simulation",
		Note:        "Historical weather simulation",
		Timestamp:   yesterday.Format(time.RFC3339),
	}
}

func (service *WeatherService) mockSnapshot(location, dateKeyword string) *models.WeatherSnapshot {
	lower := strings.ToLower(location)

	temp := 25.0
	humidity := 65
	condition := "Clear"
	for city, data := range mockConditions {
		if strings.Contains(lower, city) {
			temp = data.Temp
			humidity = data.Humidity
			condition = data.Condition
			break
		}
	}

	switch dateKeyword {
	case "tomorrow":
		temp += 2
		condition = "Mostly sunny"
	case "yesterday":
		temp -= 1
		condition = "Partly cloudy"
	default:
		dateKeyword = "today"
	}

	icon := "04d"
	lowerCondition := strings.ToLower(condition)
	if strings.Contains(lowerCondition, "sunny") || strings.Contains(lowerCondition, "clear") {
		icon = "01d"
	}

	return &models.WeatherSnapshot{
		Location:    location,
		Date:        dateKeyword,
		Temperature: temp,
		Humidity:    humidity,
		Pressure:    1013,
		WindSpeed:   12.5,
		Conditions:  condition,
		Main:        strings.Split(condition, " ")[0],
		Icon:        icon,
		Source:      "mock_data",
		Note:        "Using mock data. Add an OpenWeather API key for real weather.",
		Timestamp:   time.Now().Format(time.RFC3339),
	}
}

func (service *WeatherService) fetchJSON(ctx context.Context, endpoint string, params url.Values, target interface{}) error {
	_, err := service.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
		if err != nil {
			return nil, err
		}

		resp, err := service.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, endpoint)
		}

		return nil, json.NewDecoder(resp.Body).Decode(target)
	})
	return err
}
