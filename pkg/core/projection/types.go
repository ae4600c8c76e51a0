package projection

// MultiLoanMode selects how several loans on one property are amortized.
type MultiLoanMode string

const (
	// PerLoan amortizes each loan independently and sums the yearly figures.
	PerLoan MultiLoanMode = "per_loan"
	// RepresentativeLoan collapses all loans into the first loan's terms with the
	// summed principal.
	RepresentativeLoan MultiLoanMode = "representative"
)

// DefaultHorizonYears is the standard projection length.
const DefaultHorizonYears = 30

// Options configure a projection run.
type Options struct {
	HorizonYears  int           `json:"horizon_years" mapstructure:"horizon_years"`
	MultiLoanMode MultiLoanMode `json:"multi_loan_mode" mapstructure:"multi_loan_mode"`
}

// withDefaults fills zero values.
func (o Options) withDefaults() Options {
	if o.HorizonYears <= 0 {
		o.HorizonYears = DefaultHorizonYears
	}
	if o.MultiLoanMode == "" {
		o.MultiLoanMode = PerLoan
	}
	return o
}
