/*
Copyright © 2026 the AquaNova authors.
This file is part of AquaNova.

AquaNova is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

AquaNova is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with AquaNova.  If not, see <http://www.gnu.org/licenses/>.
*/

package aquanova

import "sort"

// StageConfig is the configuration of one stage of a treatment train.
// Zero-valued numeric fields mean "use the module default"; every
// substituted default is listed in StageMetric.Defaulted.
type StageConfig struct {
	// Name optionally identifies the stage in warnings.
	Name string `toml:"stage_id" json:"stage_id,omitempty"`

	Module ModuleType `toml:"module_type" json:"module_type"`

	// Geometry.
	VesselCount       int     `toml:"vessel_count" json:"vessel_count,omitempty"`
	ElementsPerVessel int     `toml:"elements_per_vessel" json:"elements_per_vessel,omitempty"`
	Elements          int     `toml:"elements" json:"elements,omitempty"`
	ElementInch       int     `toml:"element_inch" json:"element_inch,omitempty"`
	AreaPerElement    float64 `toml:"membrane_area_m2" json:"membrane_area_m2,omitempty"`

	// Membrane. MembraneID is resolved against the catalog; explicit
	// coefficients take precedence over catalog values.
	MembraneID string  `toml:"membrane_model" json:"membrane_model,omitempty"`
	A          float64 `toml:"membrane_A_lmh_bar" json:"membrane_A_lmh_bar,omitempty"`
	B          float64 `toml:"membrane_B_lmh" json:"membrane_B_lmh,omitempty"`
	Rejection  float64 `toml:"membrane_salt_rejection_pct" json:"membrane_salt_rejection_pct,omitempty"`
	FlowFactor float64 `toml:"flow_factor" json:"flow_factor,omitempty"`

	// Setpoints.
	Pressure             float64 `toml:"pressure_bar" json:"pressure_bar,omitempty"`
	DPModule             float64 `toml:"dp_module_bar" json:"dp_module_bar,omitempty"`
	RecoveryTarget       float64 `toml:"recovery_target_pct" json:"recovery_target_pct,omitempty"`
	Flux                 float64 `toml:"flux_lmh" json:"flux_lmh,omitempty"`
	DesignFlux           float64 `toml:"design_flux_lmh" json:"design_flux_lmh,omitempty"`
	PumpEfficiency       float64 `toml:"pump_eff" json:"pump_eff,omitempty"`
	PermeateBackPressure float64 `toml:"permeate_back_pressure_bar" json:"permeate_back_pressure_bar,omitempty"`
	FeedFlow             float64 `toml:"feed_flow_m3h" json:"feed_flow_m3h,omitempty"`

	// Cycle configures UF and MF stages.
	Cycle CycleConfig `toml:"cycle" json:"cycle"`

	// HRRO configures closed-circuit RO stages.
	HRRO HRROConfig `toml:"hrro" json:"hrro"`

	// Chemistry overrides the global chemistry block for this stage.
	Chemistry *ChemistryInput `toml:"chemistry" json:"chemistry,omitempty"`
}

// TotalElements returns the number of elements in the stage, or 0 if
// the geometry is unspecified.
func (c *StageConfig) TotalElements() int {
	if c.Elements > 0 {
		return c.Elements
	}
	return c.VesselCount * c.ElementsPerVessel
}

// CycleConfig holds the duty-cycle settings of UF and MF stages.
type CycleConfig struct {
	FiltrationMinutes   float64 `toml:"filtration_cycle_min" json:"filtration_cycle_min,omitempty"`
	BackwashSeconds     float64 `toml:"backwash_duration_sec" json:"backwash_duration_sec,omitempty"`
	AirScourSeconds     float64 `toml:"air_scour_duration_sec" json:"air_scour_duration_sec,omitempty"`
	ForwardFlushSeconds float64 `toml:"forward_flush_duration_sec" json:"forward_flush_duration_sec,omitempty"`
	BackwashFlux        float64 `toml:"backwash_flux_lmh" json:"backwash_flux_lmh,omitempty"`
	ForwardFlushFlow    float64 `toml:"forward_flush_flow_m3h_per_mod" json:"forward_flush_flow_m3h_per_mod,omitempty"`
	StrainerRecovery    float64 `toml:"strainer_recovery_pct" json:"strainer_recovery_pct,omitempty"`
	CIPLossFactor       float64 `toml:"cip_loss_factor" json:"cip_loss_factor,omitempty"`
	BackwashMultiplier  float64 `toml:"backwash_flux_multiplier" json:"backwash_flux_multiplier,omitempty"`
}

// HRROConfig holds the knobs of a closed-circuit RO stage.
type HRROConfig struct {
	// Engine is "excel_only" (default) or "excel_physics".
	Engine string `toml:"engine" json:"engine,omitempty"`

	// Baseline formula inputs.
	CCRORecovery float64 `toml:"ccro_recovery_pct" json:"ccro_recovery_pct,omitempty"`
	PFFeedRatio  float64 `toml:"pf_feed_ratio_pct" json:"pf_feed_ratio_pct,omitempty"`
	PFRecovery   float64 `toml:"pf_recovery_pct" json:"pf_recovery_pct,omitempty"`
	CCRecycle    float64 `toml:"cc_recycle_m3h_per_pv" json:"cc_recycle_m3h_per_pv,omitempty"`

	// Permeate model of the excel_only engine: "fixed_rejection",
	// "model" or "none".
	CPMode            string  `toml:"cp_mode" json:"cp_mode,omitempty"`
	FixedRejection    float64 `toml:"fixed_rejection_pct" json:"fixed_rejection_pct,omitempty"`
	MinModelRejection float64 `toml:"min_model_rejection_pct" json:"min_model_rejection_pct,omitempty"`

	// Batch cycle.
	LoopVolume      float64 `toml:"loop_volume_m3" json:"loop_volume_m3,omitempty"`
	MaxMinutes      float64 `toml:"max_minutes" json:"max_minutes,omitempty"`
	TimestepSeconds float64 `toml:"timestep_s" json:"timestep_s,omitempty"`
	StopRecovery    float64 `toml:"stop_recovery_pct" json:"stop_recovery_pct,omitempty"`
	StopPermeateTDS float64 `toml:"stop_permeate_tds_mgL" json:"stop_permeate_tds_mgL,omitempty"`

	// StopExpression is a boolean expression over the time-series point
	// variables (time_min, recovery_pct, pressure_bar, tds_mgL, flux_lmh,
	// permeate_tds_mgL, sec_kwhm3) that ends the batch cycle when true.
	StopExpression string `toml:"stop_expression" json:"stop_expression,omitempty"`

	// GuidelineProfile forces a guideline profile instead of selecting
	// one from the feed.
	GuidelineProfile string `toml:"guideline_profile" json:"guideline_profile,omitempty"`

	// FluxDecline is the expected flux decline over the membrane life
	// [%], checked against the guideline.
	FluxDecline float64 `toml:"flux_decline_pct" json:"flux_decline_pct,omitempty"`

	// Physics mode.
	PressureLimit float64            `toml:"pressure_limit_bar" json:"pressure_limit_bar,omitempty"`
	Segments      int                `toml:"num_segments" json:"num_segments,omitempty"`
	ElementLength float64            `toml:"elem_length_m" json:"elem_length_m,omitempty"`
	AMuExp        float64            `toml:"A_mu_exp" json:"A_mu_exp,omitempty"`
	BMuExp        float64            `toml:"B_mu_exp" json:"B_mu_exp,omitempty"`
	BSalSlope     float64            `toml:"B_sal_slope" json:"B_sal_slope,omitempty"`
	CompactionK   float64            `toml:"A_compaction_k" json:"A_compaction_k,omitempty"`
	Spacer        SpacerConfig       `toml:"spacer" json:"spacer"`
	MassTransfer  MassTransferConfig `toml:"mass_transfer" json:"mass_transfer"`
}

// SpacerConfig describes the feed-channel spacer.
type SpacerConfig struct {
	ThicknessMM        float64 `toml:"thickness_mm" json:"thickness_mm,omitempty"`
	Voidage            float64 `toml:"voidage" json:"voidage,omitempty"`
	HydraulicDiameterM float64 `toml:"hydraulic_diameter_m" json:"hydraulic_diameter_m,omitempty"`
}

// MassTransferConfig holds the concentration-polarization settings of
// the physics mode.
type MassTransferConfig struct {
	ChannelArea float64 `toml:"feed_channel_area_m2" json:"feed_channel_area_m2,omitempty"`
	Diffusivity float64 `toml:"diffusivity_m2_s" json:"diffusivity_m2_s,omitempty"`
	CPExpMax    float64 `toml:"cp_exp_max" json:"cp_exp_max,omitempty"`
	CPRelTol    float64 `toml:"cp_rel_tol" json:"cp_rel_tol,omitempty"`
	CPAbsTol    float64 `toml:"cp_abs_tol_lmh" json:"cp_abs_tol_lmh,omitempty"`
	CPRelax     float64 `toml:"cp_relax" json:"cp_relax,omitempty"`
	CPMaxIter   int     `toml:"cp_max_iter" json:"cp_max_iter,omitempty"`
	KMultiplier float64 `toml:"k_mt_multiplier" json:"k_mt_multiplier,omitempty"`
	KMin        float64 `toml:"k_mt_min_m_s" json:"k_mt_min_m_s,omitempty"`
}

// Defaults records which configuration values were substituted by a
// module solver.
type Defaults map[string]bool

// Float returns v, or def if v is not positive, recording the
// substitution under name.
func (d Defaults) Float(name string, v, def float64) float64 {
	if v > 0 {
		return v
	}
	d[name] = true
	return def
}

// Int is the integer version of Float.
func (d Defaults) Int(name string, v, def int) int {
	if v > 0 {
		return v
	}
	d[name] = true
	return def
}

// String returns v, or def if v is empty, recording the substitution.
func (d Defaults) String(name, v, def string) string {
	if v != "" {
		return v
	}
	d[name] = true
	return def
}

// List returns the sorted names of substituted values.
func (d Defaults) List() []string {
	if len(d) == 0 {
		return nil
	}
	o := make([]string, 0, len(d))
	for k := range d {
		o = append(o, k)
	}
	sort.Strings(o)
	return o
}
