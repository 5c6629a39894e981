package schema

// Baseline returns the training contract of the original single-model
// deployment, for installs that ship a model without an expected-features
// artifact. Order matters: it defines vector positions.
func Baseline() *Schema {
	s, err := New([]Feature{
		{Name: "age", Type: TypeNumeric},
		{Name: "sex", Type: TypeCategorical},
		{Name: "pregnancy", Type: TypeBoolean},
		{Name: "catheter", Type: TypeBoolean},
		{Name: "inpatient", Type: TypeBoolean},
		{Name: "diabetes", Type: TypeBoolean},
		{Name: "renal_disease", Type: TypeBoolean},
		{Name: "prior_uti_90d", Type: TypeNumeric},
		{Name: "prior_antibiotic_30d", Type: TypeBoolean},
		{Name: "prior_resistance", Type: TypeBoolean},
		{Name: "nursing_home_resident", Type: TypeBoolean},
		{Name: "recent_hospitalization", Type: TypeBoolean},
	}, SourceBaseline)
	if err != nil {
		// Unreachable: the list above is static and well-formed.
		panic(err)
	}
	return s
}
