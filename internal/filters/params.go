package filters

// Params holds decode parameters from a /DecodeParms dictionary. Values
// are int, float64, bool or string.
type Params map[string]interface{}

// getIntParam returns an integer parameter or defaultValue.
func getIntParam(params Params, key string, defaultValue int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return defaultValue
}

func getBoolParam(params Params, key string, defaultValue bool) bool {
	if v, ok := params[key].(bool); ok {
		return v
	}
	return defaultValue
}
