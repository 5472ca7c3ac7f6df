package dashboard

import (
	"strings"
	"time"

	"github.com/cobranca/backend/internal/domain/receivable"
	"github.com/cobranca/backend/internal/domain/shared"
)

// Profile names one dashboard variant. The variants share the same engine
// and differ only in their configuration knobs.
type Profile struct {
	Name     string
	View     receivable.ViewConfig
	Lookback time.Duration // how far back the default ingest window reaches
}

const defaultPageSize = 10

// Well-known profile names
const (
	ProfileInadimplencia = "inadimplencia"
	ProfileCobranca      = "cobranca"
	ProfileEmissao       = "emissao"
)

// BuiltinProfiles returns the production dashboard variants.
//
// inadimplência uses the strict 31-day threshold against due dates and a
// current-year calendar view; cobrança widens the threshold to 60 days and
// leaves the year view unfiltered; emissão runs the same pipeline keyed on
// issue dates instead of due dates.
func BuiltinProfiles() map[string]Profile {
	return map[string]Profile{
		ProfileInadimplencia: {
			Name: ProfileInadimplencia,
			View: receivable.ViewConfig{
				Aging: receivable.AgingConfig{
					ThresholdDays: 31,
					Basis:         receivable.BasisVencimento,
				},
				Pipeline: receivable.PipelineConfig{
					CalendarBasis: receivable.BasisVencimento,
					YearMode:      receivable.YearModeCurrent,
				},
				PageSize: defaultPageSize,
			},
			Lookback: 3 * 365 * 24 * time.Hour,
		},
		ProfileCobranca: {
			Name: ProfileCobranca,
			View: receivable.ViewConfig{
				Aging: receivable.AgingConfig{
					ThresholdDays: 60,
					Basis:         receivable.BasisVencimento,
				},
				Pipeline: receivable.PipelineConfig{
					CalendarBasis: receivable.BasisVencimento,
					YearMode:      receivable.YearModeAll,
				},
				PageSize: defaultPageSize,
			},
			Lookback: 3 * 365 * 24 * time.Hour,
		},
		ProfileEmissao: {
			Name: ProfileEmissao,
			View: receivable.ViewConfig{
				Aging: receivable.AgingConfig{
					ThresholdDays: 31,
					Basis:         receivable.BasisEmissao,
				},
				Pipeline: receivable.PipelineConfig{
					CalendarBasis: receivable.BasisEmissao,
					YearMode:      receivable.YearModeAll,
				},
				PageSize: defaultPageSize,
			},
			Lookback: 365 * 24 * time.Hour,
		},
	}
}

// ResolveProfile looks a profile up by name, case-insensitively
func ResolveProfile(profiles map[string]Profile, name string) (Profile, error) {
	p, ok := profiles[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Profile{}, shared.NewValidationError("unknown dashboard profile: %s", name)
	}
	return p, nil
}
