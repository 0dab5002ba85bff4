package service

import (
	"math"
	"time"

	"discipline-bot/internal/model"
)

// Daily adjustment of the maintenance norm by goal, in kcal.
const (
	loseDeficitKcal = 500
	gainSurplusKcal = 400
	minTargetKcal   = 1200
)

var activityMultipliers = map[string]float64{
	model.ActivitySedentary:  1.2,
	model.ActivityLight:      1.375,
	model.ActivityModerate:   1.55,
	model.ActivityActive:     1.725,
	model.ActivityVeryActive: 1.9,
}

// CalorieProfile is the computed daily norm for a user.
type CalorieProfile struct {
	BMR         float64
	TDEE        float64
	BMI         float64
	BMICategory string
	DailyTarget int
	Goal        string
}

// BMR is the Mifflin-St Jeor basal metabolic rate.
func BMR(weightKg, heightCm float64, ageYears int, gender string) float64 {
	base := 10*weightKg + 6.25*heightCm - 5*float64(ageYears)
	if gender == model.GenderFemale {
		return base - 161
	}
	return base + 5
}

// TDEE multiplies bmr by the activity coefficient, sedentary when unknown.
func TDEE(bmr float64, activity string) float64 {
	mult, ok := activityMultipliers[activity]
	if !ok {
		mult = activityMultipliers[model.ActivitySedentary]
	}
	return math.Round(bmr * mult)
}

// BMI is rounded to one decimal; 0 for a non-positive height.
func BMI(weightKg, heightCm float64) float64 {
	if heightCm <= 0 {
		return 0
	}
	m := heightCm / 100
	return math.Round(weightKg/(m*m)*10) / 10
}

// BMICategory follows the WHO thresholds.
func BMICategory(bmi float64) string {
	switch {
	case bmi < 18.5:
		return "недостаток массы"
	case bmi < 25:
		return "норма"
	case bmi < 30:
		return "избыток массы"
	default:
		return "ожирение"
	}
}

func DailyCalorieTarget(tdee float64, goal string) int {
	switch goal {
	case model.GoalLose:
		return max(minTargetKcal, int(tdee-loseDeficitKcal))
	case model.GoalGain:
		return int(tdee + gainSurplusKcal)
	default:
		return int(tdee)
	}
}

// ComputeCalorieProfile returns nil when the user has no height or birth year.
func ComputeCalorieProfile(weightKg float64, user *model.User, now time.Time) *CalorieProfile {
	if user.HeightCm == nil || *user.HeightCm <= 0 || user.BirthYear == nil || *user.BirthYear <= 0 {
		return nil
	}
	goal := user.Goal
	if goal != model.GoalLose && goal != model.GoalGain {
		goal = model.GoalMaintain
	}
	age := max(0, now.Year()-*user.BirthYear)
	height := float64(*user.HeightCm)

	bmr := BMR(weightKg, height, age, user.Gender)
	tdee := TDEE(bmr, user.ActivityLevel)
	bmi := BMI(weightKg, height)
	return &CalorieProfile{
		BMR:         math.Round(bmr),
		TDEE:        tdee,
		BMI:         bmi,
		BMICategory: BMICategory(bmi),
		DailyTarget: DailyCalorieTarget(tdee, goal),
		Goal:        goal,
	}
}
