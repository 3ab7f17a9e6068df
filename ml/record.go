package ml

import (
	"errors"
	"fmt"
)

// CharacterRecord is one inbound entity description. It is built fresh per
// request by the transport layer and never reused.
type CharacterRecord struct {
	Region      string `json:"region"`
	PrimaryRole string `json:"primary_role"`
	Alignment   string `json:"alignment"`
	Status      string `json:"status"`
	Species     string `json:"species"`

	Honour       int `json:"honour_1to5"`
	Ruthlessness int `json:"ruthlessness_1to5"`
	Intelligence int `json:"intelligence_1to5"`
	CombatSkill  int `json:"combat_skill_1to5"`
	Diplomacy    int `json:"diplomacy_1to5"`
	Leadership   int `json:"leadership_1to5"`

	TraitStrategic   bool `json:"trait_strategic"`
	TraitImpulsive   bool `json:"trait_impulsive"`
	TraitCharismatic bool `json:"trait_charismatic"`
	TraitVengeful    bool `json:"trait_vengeful"`

	// Required traits are pointers so a missing field is distinguishable
	// from an explicit false.
	TraitLoyal    *bool `json:"trait_loyal"`
	TraitScheming *bool `json:"trait_scheming"`

	FeatureSetVersion *float64 `json:"feature_set_version"`
}

// CategoricalFields returns the free-text fields that get one-hot expanded,
// in a stable order.
func CategoricalFields() []string {
	return []string{"region", "primary_role", "alignment", "status", "species"}
}

func (r *CharacterRecord) categoricals() map[string]string {
	return map[string]string{
		"region":       r.Region,
		"primary_role": r.PrimaryRole,
		"alignment":    r.Alignment,
		"status":       r.Status,
		"species":      r.Species,
	}
}

func (r *CharacterRecord) numerics() map[string]float64 {
	return map[string]float64{
		"honour_1to5":         float64(r.Honour),
		"ruthlessness_1to5":   float64(r.Ruthlessness),
		"intelligence_1to5":   float64(r.Intelligence),
		"combat_skill_1to5":   float64(r.CombatSkill),
		"diplomacy_1to5":      float64(r.Diplomacy),
		"leadership_1to5":     float64(r.Leadership),
		"feature_set_version": r.Version(),
	}
}

func (r *CharacterRecord) traits() map[string]bool {
	return map[string]bool{
		"trait_strategic":   r.TraitStrategic,
		"trait_impulsive":   r.TraitImpulsive,
		"trait_charismatic": r.TraitCharismatic,
		"trait_vengeful":    r.TraitVengeful,
		"trait_loyal":       r.TraitLoyal != nil && *r.TraitLoyal,
		"trait_scheming":    r.TraitScheming != nil && *r.TraitScheming,
	}
}

// Version returns the feature set version, defaulting to 1.0 when the
// request omitted it.
func (r *CharacterRecord) Version() float64 {
	if r.FeatureSetVersion == nil {
		return 1.0
	}
	return *r.FeatureSetVersion
}

// Validate rejects records that cannot produce a feature vector. Rating
// values are passed through as-is; the model was trained on whatever the
// dataset contained and range checks belong upstream.
func (r *CharacterRecord) Validate() error {
	for field, value := range r.categoricals() {
		if value == "" {
			return fmt.Errorf("%s is required", field)
		}
	}
	if r.TraitLoyal == nil {
		return errors.New("trait_loyal is required")
	}
	if r.TraitScheming == nil {
		return errors.New("trait_scheming is required")
	}
	return nil
}
