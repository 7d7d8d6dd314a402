package analysis

// Reference two-group IQ dataset: 47 treated ("drug") and 42 control
// ("placebo") measurements from the smart-drug evaluation the robust
// comparison model was designed around.
var (
	DrugIQ = []float64{
		101, 100, 102, 104, 102, 97, 105, 105, 98, 101, 100, 123, 105, 103,
		100, 95, 102, 106, 109, 102, 82, 102, 100, 102, 102, 101, 102, 102,
		103, 103, 97, 97, 103, 101, 97, 104, 96, 103, 124, 101, 101, 100,
		101, 101, 104, 100, 101,
	}

	PlaceboIQ = []float64{
		99, 101, 100, 101, 102, 100, 97, 101, 104, 101, 102, 102, 100, 105,
		88, 101, 100, 104, 100, 100, 100, 101, 102, 103, 97, 101, 101, 100,
		101, 99, 101, 100, 100, 101, 100, 99, 101, 100, 102, 99, 100, 99,
	}
)

// IQData returns the reference dataset in the grouped shape Compare
// consumes: concatenated values, per-value group codes, and group labels.
func IQData() ([]float64, []int, []string) {
	values := make([]float64, 0, len(DrugIQ)+len(PlaceboIQ))
	groups := make([]int, 0, cap(values))

	values = append(values, DrugIQ...)
	for range DrugIQ {
		groups = append(groups, 0)
	}

	values = append(values, PlaceboIQ...)
	for range PlaceboIQ {
		groups = append(groups, 1)
	}

	return values, groups, []string{"drug", "placebo"}
}
