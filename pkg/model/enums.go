package model

type (
	Compound         string
	StrategyMode     string
	WeatherCondition string
	FlagStatus       string
	PushSignal       string
	DrsStatus        string
)

const (
	CompoundSoft         Compound = "Soft"
	CompoundMedium       Compound = "Medium"
	CompoundHard         Compound = "Hard"
	CompoundIntermediate Compound = "Intermediate"
	CompoundWet          Compound = "Wet"
)

const (
	ModeAggressive StrategyMode = "Aggressive"
	ModeNeutral    StrategyMode = "Neutral"
	ModeDefensive  StrategyMode = "Defensive"
)

// ordered by severity. Transitions move at most one step per lap.
const (
	WeatherClear     WeatherCondition = "Clear"
	WeatherCloudy    WeatherCondition = "Cloudy"
	WeatherLightRain WeatherCondition = "Light Rain"
	WeatherHeavyRain WeatherCondition = "Heavy Rain"
)

const (
	FlagGreen     FlagStatus = "Green"
	FlagYellow    FlagStatus = "Yellow"
	FlagSafetyCar FlagStatus = "Safety Car"
)

const (
	SignalPush     PushSignal = "PUSH"
	SignalMaintain PushSignal = "MAINTAIN"
	SignalConserve PushSignal = "CONSERVE"
)

const (
	DrsActive   DrsStatus = "Active"
	DrsInactive DrsStatus = "Inactive"
)

// WeatherConditions lists the conditions in severity order.
var WeatherConditions = []WeatherCondition{
	WeatherClear, WeatherCloudy, WeatherLightRain, WeatherHeavyRain,
}

// HasRain reports whether the condition has a rain component.
func (w WeatherCondition) HasRain() bool {
	return w == WeatherLightRain || w == WeatherHeavyRain
}

// IsWetWeather reports whether the compound is designed for rain.
func (c Compound) IsWetWeather() bool {
	return c == CompoundIntermediate || c == CompoundWet
}
