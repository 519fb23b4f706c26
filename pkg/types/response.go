package types

// SuccessEnvelope is encoded as {"success":true,"message":...,"<Key>":Data}.
type SuccessEnvelope struct {
	Message string
	Key     string
	Data    any
}

// Fields flattens the envelope into its wire shape.
func (e SuccessEnvelope) Fields() map[string]any {
	out := map[string]any{
		"success": true,
		"message": e.Message,
	}
	if e.Key != "" {
		out[e.Key] = e.Data
	}
	return out
}

type ErrorEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}
