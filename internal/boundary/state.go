package boundary

// State is the position of a Caller in the call sequence.
type State uint8

const (
	Idle State = iota
	Reserved
	Written
	Computed
	ReadBack
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Reserved:
		return "reserved"
	case Written:
		return "written"
	case Computed:
		return "computed"
	case ReadBack:
		return "read_back"
	default:
		return "unknown"
	}
}

// Step names the part of the call sequence an error came from.
type Step string

const (
	StepSetup   Step = "setup"
	StepReserve Step = "reserve"
	StepEncode  Step = "encode"
	StepWrite   Step = "write"
	StepCompute Step = "compute"
	StepRead    Step = "read"
	StepDecode  Step = "decode"
	StepScalar  Step = "scalar"
)
