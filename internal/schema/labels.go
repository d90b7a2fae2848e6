package schema

import (
	"regexp"
	"strconv"
	"strings"
)

var labels = map[string]string{
	"site_visit_date":           "Site visit date",
	"facility_name":             "Name of the facility",
	"facility_location":         "Location of the facility",
	"facility_area":             "Total facility area (built) – office area",
	"contact1_name":             "Contact person name and designation (1)",
	"contact1_phone":            "Contact person phone number (1)",
	"contact1_email":            "Contact person email (1)",
	"contact2_name":             "Contact person name and designation (2)",
	"contact2_phone":            "Contact person phone number (2)",
	"contact2_email":            "Contact person email (2)",
	"num_employees":             "Number of employees",
	"production_schedule":       "Production schedule",
	"office_schedule":           "Regular office schedule",
	"major_products":            "Major products / services",
	"annual_sales":              "Annual Sales / gross revenue",
	"raw_materials":             "Main raw materials",
	"final_wastes":              "Final wastes",
	"labor_rates":               "Labor rates for site improvements",
	"electricity_supplier":      "Electricity supplier name",
	"electricity_kwh_charge":    "Electricity kWh charge",
	"electricity_demand_charge": "Electricity demand charge",
	"power_factor":              "Power factor",
	"gas_supplier":              "Natural gas supplier name",
	"gas_cost":                  "Natural gas cost",
	"water_supplier":            "Potable water supplier name",
	"water_cost":                "Potable water cost",
	"fuel_oil_consumption":      "Annual fuel oil consumption",
	"solar_pv_capacity":         "Solar PV capacity (if available)",
	"renewable_capacity":        "Renewable energy capacity (if available)",
	"lighting_location":         "Location / Area of lighting",
	"lighting_similar":          "Similar fixture available? (Y/N)",
	"lighting_fixtures":         "Number of fixtures",
	"lighting_lamps":            "Lamps per fixture",
	"lighting_lamp_type":        "Existing lamp type (non-LED)",
	"lighting_demand":           "Fixture demand (kW)",
	"lighting_hours":            "Daily / weekly operating hours",
	"lighting_sensor":           "Occupancy sensor available? (Y/N)",
	"lighting_height":           "Mounting height (ft)",
	"hvac_system_type":          "HVAC system type",
	"hvac_thermostat_count":     "Any Programmable thermostat available? If so, how many?",
	"hvac_spt_summer":           "Current Setpoint Temperature (SPT) during summer",
	"hvac_spt_winter":           "SPT during winter",
	"hvac_sbt_summer":           "Set Back Temperature (SBT) during non-occupied hours / night-time in summer",
	"hvac_sbt_winter":           "SBT during winter",
	"hvac_destrat_fans":         "Any destratification fans available? How many?",
	"hvac_calibration_date":     "Previous date of thermostat calibration?",
	"hvac_maintenance_freq":     "How often is the maintenance program?",
	"hvac_last_maintenance":     "When did the last maintenance happen?",
	"hvac_maintenance_duration": "Duration of each maintenance per unit?",
	"hvac_maintenance_tasks":    "Common tasks during routine maintenance?",
	"compressor_count":          "No. of existing compressors",
	"com_plans_change":          "Any plans for changing old compressor?",
	"com_ventilated":            "Location of compressors well ventilated?",
	"com_receiver":              "Primary air receiver tank available? Total storage capacity?",
	"com_header_storage":        "Any common header storage available? Capacity of the common storage?",
	"com_secondary_storage":     "Any secondary storage system available? Capacity of storage?",
	"com_loop_dist":             "Loop distribution system used?",
	"com_maintenance_interval":  "What is the maintenance program interval?",
	"com_last_leak":             "Last Leak detection program performed?",
	"com_maint_activities":      "What are the common activities during compressor maintenance?",
	"com_leaks_observed":        "Audible / visible leaks observed?",
	"com_leaks_count":           "How many leaks are identified?",
	"com_leaks_db":              "What are the dBs of audible leaks?",
	"com_leaks_size":            "What are the approximate sizes of leaks?",
	"boiler_maint_time":         "Boiler maintenance time",
	"boiler_maint_interval":     "Boiler maintenance interval",
	"boiler_condensate":         "Condensate recovery system available?",
	"boiler_blowdown":           "Automatic blowdown system?",
	"boiler_insulation":         "Insulation of the valve and flanges checked?",
	"boiler_heat_recovery":      "Any waste heat recovery system installed?",
	"env_wall_detail":           "Exterior wall materials of the facility",
	"env_insulation_detail":     "Insulation materials in heated/cooled space",
	"env_wall_thick_detail":     "Wall insulation thickness",
	"env_wall_temp":             "Inside wall surface temperature (using thermal gun)",
	"env_roof_area":             "Roof Insulation Area",
	"env_roof_materials":        "Roof materials of the manufacturing facility",
	"env_roof_temp":             "Roof surface temperature (using thermal gun)",
	"env_roof_thick":            "Roof insulation thickness",
	"env_insulation_age":        "How old is the insulation system?",
	"gen_has_backup":            "Does the site have any backup Generator? (Y/N)",
	"chiller_units":             "Number of units",
	"chiller_brand":             "Brand / Model",
	"chiller_age":               "Estimated age",
	"chiller_cap":               "Capacity / Size",
	"chiller_temp_in":           "Temp. IN (°F)",
	"chiller_temp_out":          "Temp. OUT (°F)",
	"chiller_wet_bulb":          "Wet bulb temp (°F)",
	"chiller_op_time":           "Existing chiller operation time",
	"chiller_efficiency":        "Chiller efficiency",
}

var trailingIndex = regexp.MustCompile(`_?\d+$`)

// Label returns the human-readable label for a field name. Row and unit
// suffixes ("_3") are stripped to find the base label; unknown names are
// prettified by replacing underscores with spaces.
func Label(name string) string {
	if l, ok := labels[name]; ok {
		return l
	}
	if base := trailingIndex.ReplaceAllString(name, ""); base != name {
		if l, ok := labels[base]; ok {
			return l
		}
	}
	return strings.ReplaceAll(name, "_", " ")
}

// RowField returns the control name of column col in row i.
func RowField(col string, i int) string {
	return col + "_" + strconv.Itoa(i)
}

// SplitIndex splits "lighting_location_2" into ("lighting_location", 2).
// ok is false when name carries no "_<n>" suffix.
func SplitIndex(name string) (base string, idx int, ok bool) {
	cut := strings.LastIndexByte(name, '_')
	if cut <= 0 || cut == len(name)-1 {
		return name, 0, false
	}
	n, err := strconv.Atoi(name[cut+1:])
	if err != nil || n < 0 {
		return name, 0, false
	}
	return name[:cut], n, true
}
