package tools

// Schema is the JSON-schema subset used to describe tool parameters.
type Schema struct {
	Type        string            `json:"type"`
	Description string            `json:"description,omitempty"`
	Properties  map[string]Schema `json:"properties,omitempty"`
	Required    []string          `json:"required,omitempty"`
}

// Definition describes a tool to the model.
type Definition struct {
	Name        Name
	Description string
	Parameters  *Schema
}

var definitions = []Definition{
	{
		Name:        FindAllDoctors,
		Description: "Get a list of all available doctors. Use for general recommendations.",
		Parameters:  &Schema{Type: "object", Properties: map[string]Schema{}},
	},
	{
		Name:        FindDoctorByName,
		Description: "Get the ID of a specific doctor by their name.",
		Parameters: &Schema{
			Type: "object",
			Properties: map[string]Schema{
				"doctor_name": {Type: "string"},
			},
			Required: []string{"doctor_name"},
		},
	},
	{
		Name:        CheckPatientAvailability,
		Description: "Check if the patient already has a conflicting appointment at a specific time.",
		Parameters: &Schema{
			Type: "object",
			Properties: map[string]Schema{
				"patient_id": {Type: "integer"},
				"start_time": {Type: "string", Description: "The time to check in UTC ISO 8601 format."},
			},
			Required: []string{"patient_id", "start_time"},
		},
	},
	{
		Name:        GetAvailableSlots,
		Description: "Check a specific doctor's schedule for all available slots on a given date.",
		Parameters: &Schema{
			Type: "object",
			Properties: map[string]Schema{
				"doctor_id": {Type: "integer"},
				"date":      {Type: "string", Description: "The date in 'YYYY-MM-DD' format."},
			},
			Required: []string{"doctor_id", "date"},
		},
	},
	{
		Name:        BookAppointment,
		Description: "Books a medical appointment.",
		Parameters: &Schema{
			Type: "object",
			Properties: map[string]Schema{
				"patient_id": {Type: "integer"},
				"doctor_id":  {Type: "integer"},
				"start_time": {Type: "string", Description: "The start time in UTC ISO 8601 format."},
				"notes":      {Type: "string"},
			},
			Required: []string{"patient_id", "doctor_id", "start_time", "notes"},
		},
	},
}

// Definitions returns the tool descriptions offered to the model.
func Definitions() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out
}
