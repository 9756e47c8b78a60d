package forecast

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Params are the inputs to the outbreak projection.
type Params struct {
	Population      int     `json:"population" validate:"gt=0,lte=100000000"`
	InitialInfected int     `json:"initial_infected" validate:"gte=1"`
	ContactRate     float64 `json:"contact_rate" validate:"gte=0,lte=10"`
	RecoveryRate    float64 `json:"recovery_rate" validate:"gt=0,lte=1"`
	Days            int     `json:"days" validate:"gt=0,lte=365"`
}

// Point is one projected day.
type Point struct {
	Day         int     `json:"day"`
	Susceptible float64 `json:"susceptible"`
	Infected    float64 `json:"infected"`
	Recovered   float64 `json:"recovered"`
}

// Result is the full projection plus summary figures.
type Result struct {
	Points       []Point `json:"points"`
	PeakDay      int     `json:"peak_day"`
	PeakInfected float64 `json:"peak_infected"`
}

var validate = validator.New()

// Project runs a discrete SIR projection over the requested horizon.
// The model is deterministic; the same params always produce the same curve.
func Project(params Params) (*Result, error) {
	if err := validate.Struct(&params); err != nil {
		return nil, fmt.Errorf("invalid forecast params: %w", err)
	}
	if params.InitialInfected > params.Population {
		return nil, fmt.Errorf("initial infected (%d) exceeds population (%d)", params.InitialInfected, params.Population)
	}

	n := float64(params.Population)
	s := n - float64(params.InitialInfected)
	i := float64(params.InitialInfected)
	r := 0.0

	result := &Result{
		Points:       make([]Point, 0, params.Days+1),
		PeakInfected: i,
	}
	result.Points = append(result.Points, Point{Day: 0, Susceptible: s, Infected: i, Recovered: r})

	for day := 1; day <= params.Days; day++ {
		newInfections := params.ContactRate * s * i / n
		if newInfections > s {
			newInfections = s
		}
		newRecoveries := params.RecoveryRate * i

		s -= newInfections
		i += newInfections - newRecoveries
		r += newRecoveries

		if i < 0 {
			i = 0
		}

		result.Points = append(result.Points, Point{Day: day, Susceptible: s, Infected: i, Recovered: r})

		if i > result.PeakInfected {
			result.PeakInfected = i
			result.PeakDay = day
		}
	}

	return result, nil
}
