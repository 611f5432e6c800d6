package physics

import "fmt"

// param binds a parameter name to a field for GetParams/SetParam.
type param struct {
	name string
	ptr  *float64
	// positive parameters reject zero and negative values
	positive bool
}

func getParams(ps []param) map[string]float64 {
	out := make(map[string]float64, len(ps))
	for _, p := range ps {
		out[p.name] = *p.ptr
	}
	return out
}

func setParam(ps []param, name string, value float64) error {
	for _, p := range ps {
		if p.name != name {
			continue
		}
		if p.positive && value <= 0 {
			return fmt.Errorf("param %s must be positive, got %g", name, value)
		}
		*p.ptr = value
		return nil
	}
	return fmt.Errorf("unknown param: %s", name)
}
