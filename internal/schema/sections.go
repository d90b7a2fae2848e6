package schema

import "strconv"

func units(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = prefix + "_" + strconv.Itoa(i+1)
	}
	return out
}

func grid(headers []string, n int, rows ...[2]string) Grid {
	g := Grid{Headers: headers}
	for _, r := range rows {
		g.Rows = append(g.Rows, GridRow{Label: r[0], Fields: units(r[1], n)})
	}
	return g
}

func checklist(fields, labels []string) Checklist {
	c := Checklist{Items: make([]CheckItem, len(fields))}
	for i := range fields {
		c.Items[i] = CheckItem{Field: fields[i], Label: labels[i]}
	}
	return c
}

var tables = []Table{
	{
		ID:      TableLighting,
		Section: "lighting",
		Columns: []Column{
			{"lighting_location", "Location / Area"},
			{"lighting_similar", "Similar (Y/N)"},
			{"lighting_fixtures", "No. of fixtures"},
			{"lighting_lamps", "Lamps per fixture"},
			{"lighting_lamp_type", "Lamp type (non-LED)"},
			{"lighting_demand", "Demand (kW)"},
			{"lighting_hours", "Daily / weekly hours"},
			{"lighting_sensor", "Occupancy sensor (Y/N)"},
			{"lighting_height", "Mounting height (ft)"},
		},
	},
	{
		ID:      TablePowerMisc,
		Section: "power",
		Columns: []Column{
			{"pwr_cat", "Category"},
			{"pwr_loc", "Location"},
			{"pwr_brand", "Brand / Model"},
			{"pwr_age", "Estimated age (years)"},
			{"pwr_cap", "Capacity / Size (HP)"},
			{"pwr_units", "Number of units"},
		},
	},
}

var sections = []Section{
	{
		ID:    "general",
		Title: "General Facility Information",
		Prefixes: []string{"site_visit_date", "facility_name", "facility_location", "facility_area", "contact1_", "contact2_",
			"num_employees", "production_schedule", "office_schedule", "major_products", "annual_sales", "raw_materials",
			"final_wastes", "labor_rates"},
		Blocks: []Block{
			FieldList{Fields: []string{"site_visit_date", "facility_name", "facility_location", "facility_area",
				"contact1_name", "contact1_phone", "contact1_email", "contact2_name", "contact2_phone", "contact2_email",
				"num_employees", "production_schedule", "office_schedule", "major_products", "annual_sales",
				"raw_materials", "final_wastes", "labor_rates"}},
		},
	},
	{
		ID:       "utility",
		Title:    "Utility Consumption",
		Prefixes: []string{"electricity_", "power_factor", "gas_supplier", "gas_cost", "water_supplier", "water_cost", "fuel_oil", "solar_pv", "renewable_"},
		Blocks: []Block{
			FieldList{Fields: []string{"electricity_supplier", "electricity_kwh_charge", "electricity_demand_charge",
				"power_factor", "gas_supplier", "gas_cost", "water_supplier", "water_cost", "fuel_oil_consumption",
				"solar_pv_capacity", "renewable_capacity"}},
		},
	},
	{
		ID:       "lighting",
		Title:    "Lighting System",
		Prefixes: []string{"lighting_"},
		Blocks: []Block{
			SubTitle{Text: "Existing Lighting Counts"},
			RepeatTable{Table: TableLighting},
		},
	},
	{
		ID:       "hvac",
		Title:    "HVAC System",
		Prefixes: []string{"hvac_"},
		Blocks: []Block{
			FieldList{Fields: []string{"hvac_system_type"}},
			grid([]string{"Parameter", "HVAC-1", "HVAC-2", "HVAC-3", "HVAC-4"}, 4,
				[2]string{"S/N of HVAC", "hvac_sn"},
				[2]string{"Brand Name", "hvac_brand"},
				[2]string{"Model Number", "hvac_model"},
				[2]string{"Capacity, Tons / MMBtu", "hvac_cap"},
				[2]string{"Operating hours", "hvac_hours"},
				[2]string{"Estimated age", "hvac_age"},
				[2]string{"Installed location / height of the units", "hvac_location"},
			),
			SubTitle{Text: "General Information about heating/cooling"},
			FieldList{Fields: []string{"hvac_thermostat_count", "hvac_spt_summer", "hvac_spt_winter", "hvac_sbt_summer",
				"hvac_sbt_winter", "hvac_destrat_fans", "hvac_calibration_date", "hvac_maintenance_freq",
				"hvac_last_maintenance", "hvac_maintenance_duration", "hvac_maintenance_tasks"}},
		},
	},
	{
		ID:       "compressed_air",
		Title:    "Compressed Air System",
		Prefixes: []string{"compressor_count", "com_"},
		Blocks: []Block{
			LabeledLine{Label: "Number of existing compressors", Field: "compressor_count"},
			grid([]string{"Parameters", "Com-1", "Com-2", "Com-3"}, 3,
				[2]string{"Compressor Type – rotary / reciprocating / screw", "com_type"},
				[2]string{"Brand / Model", "com_brand"},
				[2]string{"Size of compressors (HP)", "com_size"},
				[2]string{"Daily / Annual operating hours", "com_hours"},
				[2]string{"Estimated age", "com_age"},
				[2]string{"Any VFD installed? Specifications (nameplate)", "com_vfd"},
				[2]string{"Discharge pressure of the compressor (psig)", "com_discharge"},
				[2]string{"Min pressure required at all other points of use", "com_min_press"},
				[2]string{"Load / Unload pressure", "com_load"},
				[2]string{"Loading / Unloading time", "com_load_time"},
				[2]string{"Cooling System – air / water cooled", "com_cooling"},
			),
			SubTitle{Text: "General Information of usage"},
			FieldList{Fields: []string{"com_plans_change", "com_ventilated", "com_receiver", "com_header_storage",
				"com_secondary_storage", "com_loop_dist", "com_maintenance_interval", "com_last_leak",
				"com_maint_activities", "com_leaks_observed", "com_leaks_count", "com_leaks_db", "com_leaks_size"}},
		},
	},
	{
		ID:       "boiler",
		Title:    "Boiler System",
		Prefixes: []string{"boiler_"},
		Blocks: []Block{
			grid([]string{"Parameters", "B-1", "B-2", "B-3", "B-4"}, 4,
				[2]string{"Brand", "boiler_brand"},
				[2]string{"Model", "boiler_model"},
				[2]string{"Capacity of boiler (from nameplate)", "boiler_cap"},
				[2]string{"What is fuel type?", "boiler_fuel"},
				[2]string{"Daily / Annual operation schedule", "boiler_schedule"},
				[2]string{"Estimated boiler load factor", "boiler_load"},
				[2]string{"Boiler feed-water temperature", "boiler_feed"},
				[2]string{"Combustion air inlet temperature", "boiler_air"},
				[2]string{"Operating pressure of the boiler", "boiler_pressure"},
				[2]string{"Condensate return temperature", "boiler_cond"},
				[2]string{"Make-up water temperature", "boiler_makeup"},
				[2]string{"Insulation temperature of the valve and flanges (using thermal gun)", "boiler_ins_temp"},
				[2]string{"Flue gas temperature (using flue gas analyzer)", "boiler_flue"},
				[2]string{"Oxygen percentage (using flue gas analyzer)", "boiler_o2"},
			),
			SubTitle{Text: "General Information"},
			FieldList{Fields: []string{"boiler_maint_time", "boiler_maint_interval", "boiler_condensate",
				"boiler_blowdown", "boiler_insulation", "boiler_heat_recovery"}},
		},
	},
	{
		ID:       "envelope",
		Title:    "Building Envelope System",
		Prefixes: []string{"env_"},
		Blocks: []Block{
			checklist(
				[]string{"env_insulation", "env_wall_thick", "env_wall_materials", "env_roof_ins", "env_roof_thick_yn",
					"env_thermal", "env_uninsulated", "env_door", "env_vestibule", "env_windows", "env_films", "env_shading"},
				[]string{
					"Insulation between heated/cooled spaces and unconditioned or outside areas?",
					"Wall insulation thickness known?",
					"Exterior wall materials of the facility identified?",
					"Roof insulation present?",
					"Roof insulation thickness known?",
					"Hot surfaces insulation checked using thermal scanner?",
					"Uninsulated valves/flanges found?",
					"Automatic door closing mechanisms worked?",
					"Vestibule doors at major entrances?",
					"Broken or cracked windows noticed?",
					"Any reflective or heat absorbing films installed?",
					"Outdoor shading devices installed?",
				}),
			SubTitle{Text: "Detailed Information"},
			FieldList{Fields: []string{"env_wall_detail", "env_insulation_detail", "env_wall_thick_detail",
				"env_wall_temp", "env_roof_area", "env_roof_materials", "env_roof_temp", "env_roof_thick",
				"env_insulation_age"}},
		},
	},
	{
		ID:       "power",
		Title:    "Power System – Energy Assessment Checklist",
		Prefixes: []string{"pwr_"},
		Blocks: []Block{
			checklist(
				[]string{"pwr_transformer", "pwr_trans_no_load", "pwr_vending", "pwr_vend_miser", "pwr_motor_inv",
					"pwr_motor_sizes", "pwr_motor_eff", "pwr_vfd", "pwr_pumps", "pwr_belt_fan", "pwr_direct_fan",
					"pwr_demand", "pwr_pf", "pwr_maint_records", "pwr_forklift"},
				[]string{
					"Transformer ambient temperature high?",
					"Transformers remain energized when serving no load for extended periods?",
					"Vending machines remain energized during unoccupied periods?",
					"Any Vend Miser installed?",
					"Motor inventory completed?",
					"Motor sizes recorded?",
					"Motor efficiency class known?",
					"VFDs installed on motors?",
					"Pumps capacity recorded?",
					"Belt-driven fan available?",
					"Direct-driven fan available?",
					"High electricity demand charges incurred?",
					"Low power factor observed in the bill?",
					"Any records of maintenance for motors and motor driven equipment available?",
					"Are forklifts battery powered?",
				}),
			SubTitle{Text: "Miscellaneous"},
			RepeatTable{Table: TablePowerMisc},
		},
	},
	{
		ID:       "chillers",
		Title:    "Chillers / Cooling Tower",
		Prefixes: []string{"chiller_"},
		Blocks: []Block{
			SingleRowTable{
				Headers: []string{"Number of units", "Brand/Model", "Estimated age", "Capacity/Size", "Temp IN (°F)", "Temp OUT (°F)", "Wet bulb (°F)"},
				Fields:  []string{"chiller_units", "chiller_brand", "chiller_age", "chiller_cap", "chiller_temp_in", "chiller_temp_out", "chiller_wet_bulb"},
			},
			SubTitle{Text: "Detailed Information"},
			FieldList{Fields: []string{"chiller_op_time", "chiller_efficiency"}},
		},
	},
	{
		ID:       "generator",
		Title:    "Generator",
		Prefixes: []string{"gen_", "gpm_o2_", "aux_co", "aux_co1_", "aux_co2_"},
		Blocks: []Block{
			LabeledLine{Label: "Does the site have any backup Generator? (Y/N)", Field: "gen_has_backup"},
			SubTitle{Text: "Generator"},
			grid([]string{"Parameters", "Gen-1", "Gen-2", "Gen-3", "Gen-4"}, 4,
				[2]string{"Brand", "gen_brand"},
				[2]string{"Model", "gen_model"},
				[2]string{"Type of fuel used (N.G. / Diesel / Others)", "gen_fuel"},
				[2]string{"Capacity, KW/HP", "gen_cap"},
				[2]string{"Running Load, KW/HP", "gen_load"},
				[2]string{"Jacket water inlet temp. °F", "gen_jw_in"},
				[2]string{"Jacket water outlet temp. °F", "gen_jw_out"},
				[2]string{"Jacket water flowrate, gpm", "gpm_o2"},
				[2]string{"Auxiliary cooling water inlet temp. °F", "aux_co"},
				[2]string{"Auxiliary cooling water outlet temp. °F", "aux_co1"},
				[2]string{"Auxiliary cooling water flowrate, gpm", "aux_co2"},
			),
			SubTitle{Text: "Flue Gas Analysis"},
			grid([]string{"Parameters", "Gen-1", "Gen-2", "Gen-3", "Gen-4"}, 4,
				[2]string{"O2 (%)", "gen_o2"},
				[2]string{"CO (ppm)", "gen_co"},
				[2]string{"CO2 (%)", "gen_co2"},
				[2]string{"T flue (°F)", "gen_tflue"},
				[2]string{"T air (°F)", "gen_tair"},
				[2]string{"ΔT (°F)", "gen_dt"},
				[2]string{"RH (%)", "gen_rh"},
			),
		},
	},
}
