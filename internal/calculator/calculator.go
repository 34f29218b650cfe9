// Package calculator estimates what a household saves by switching to a
// cleaner cooking fuel.
package calculator

import "math"

const (
	// Share of the current fuel spend saved by the clean fuel.
	cleanSavingRate = 0.3
	// Kilograms of CO2 avoided per shilling saved.
	co2PerShilling = 2
	// Hours saved per meal per week.
	hoursPerMeal = 0.2
	daysPerMonth = 30
	minBarWidth  = 10
)

type Input struct {
	CurrentFuel   string
	CleanFuel     string
	DailySpend    float64
	MealsPerDay   int
	HouseholdSize int
}

// Result amounts are in KES.
type Result struct {
	MonthlyCurrent    float64
	MonthlyClean      float64
	MonthlySavings    float64
	MonthlyPercentage int
	YearlySavings     float64
	YearlyPercentage  int
	CO2SavingsKg      float64
	TimeSavingsHours  float64
	// Width of the clean-fuel bar relative to the current one, in percent.
	CleanBarWidth int
}

// Calculate is a pure function of the form values. Non-positive meals and
// household size count as 1.
func Calculate(in Input) Result {
	if in.MealsPerDay <= 0 {
		in.MealsPerDay = 1
	}
	if in.HouseholdSize <= 0 {
		in.HouseholdSize = 1
	}

	monthlyCurrent := in.DailySpend * daysPerMonth
	monthlyClean := monthlyCurrent * (1 - cleanSavingRate)
	yearlyCurrent := monthlyCurrent * 12
	yearlyClean := monthlyClean * 12

	r := Result{
		MonthlyCurrent:   monthlyCurrent,
		MonthlyClean:     monthlyClean,
		MonthlySavings:   monthlyCurrent - monthlyClean,
		YearlySavings:    yearlyCurrent - yearlyClean,
		CO2SavingsKg:     (monthlyCurrent - monthlyClean) * co2PerShilling,
		TimeSavingsHours: float64(in.MealsPerDay) * hoursPerMeal * 7,
		CleanBarWidth:    minBarWidth,
	}
	if monthlyCurrent > 0 {
		r.MonthlyPercentage = percent(r.MonthlySavings, monthlyCurrent)
		r.YearlyPercentage = percent(r.YearlySavings, yearlyCurrent)
		if w := percent(monthlyClean, monthlyCurrent); w > minBarWidth {
			r.CleanBarWidth = w
		}
	}
	return r
}

func percent(part, whole float64) int {
	return int(math.Round(100 * part / whole))
}
