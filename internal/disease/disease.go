// Package disease defines the closed set of supported disease types and the
// static model descriptor table: where each model lives, how many features it
// expects and how it is presented to callers.
package disease

import (
	"fmt"
	"path"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Type is a disease-type token accepted on the wire.
type Type string

const (
	Diabetes  Type = "diabetes"
	Heart     Type = "heart"
	Parkinson Type = "parkinson"
)

// Descriptor is one row of the model table. Descriptors are immutable for the
// lifetime of the process.
type Descriptor struct {
	Type         Type
	File         string // relative to the models directory
	FeatureCount int
	DisplayName  string
	Features     []string
}

// FileName returns the base name of the model file.
func (d Descriptor) FileName() string {
	return path.Base(d.File)
}

// Dir returns the folder of the model file relative to the models directory.
func (d Descriptor) Dir() string {
	return path.Dir(d.File) + "/"
}

var descriptors = []Descriptor{
	{
		Type:         Diabetes,
		File:         "datasets/diabetes_model.json",
		FeatureCount: 8,
		DisplayName:  "Diabetes Risk Assessment",
		Features: []string{
			"Pregnancies", "Glucose", "BloodPressure", "SkinThickness",
			"Insulin", "BMI", "DiabetesPedigreeFunction", "Age",
		},
	},
	{
		Type:         Heart,
		File:         "datasets/heart_model.json",
		FeatureCount: 13,
		DisplayName:  "Heart Disease Risk Assessment",
		Features: []string{
			"age", "sex", "cp", "trestbps", "chol", "fbs", "restecg",
			"thalach", "exang", "oldpeak", "slope", "ca", "thal",
		},
	},
	{
		Type:         Parkinson,
		File:         "datasets/parkinson_model.json",
		FeatureCount: 22,
		DisplayName:  "Parkinson's Disease Risk Assessment",
		Features: []string{
			"MDVP:Fo(Hz)", "MDVP:Fhi(Hz)", "MDVP:Flo(Hz)", "MDVP:Jitter(%)",
			"MDVP:Jitter(Abs)", "MDVP:RAP", "MDVP:PPQ", "Jitter:DDP",
			"MDVP:Shimmer", "MDVP:Shimmer(dB)", "Shimmer:APQ3", "Shimmer:APQ5",
			"MDVP:APQ", "Shimmer:DDA", "NHR", "HNR", "RPDE", "DFA",
			"spread1", "spread2", "D2", "PPE",
		},
	},
}

var byType = func() map[Type]Descriptor {
	m := make(map[Type]Descriptor, len(descriptors))
	for _, d := range descriptors {
		m[d.Type] = d
	}
	return m
}()

// All returns the descriptor table in listing order.
func All() []Descriptor {
	out := make([]Descriptor, len(descriptors))
	copy(out, descriptors)
	return out
}

// Types returns the valid disease-type tokens in listing order.
func Types() []Type {
	out := make([]Type, len(descriptors))
	for i, d := range descriptors {
		out[i] = d.Type
	}
	return out
}

// Lookup returns the descriptor for t.
func Lookup(t Type) (Descriptor, bool) {
	d, ok := byType[t]
	return d, ok
}

// Valid reports whether s names a supported disease type.
func Valid(s string) bool {
	_, ok := byType[Type(s)]
	return ok
}

// ValidSet renders the valid tokens for error messages, e.g. "[diabetes heart parkinson]".
func ValidSet() string {
	return fmt.Sprint(Types())
}

// DisplayName returns the human-readable assessment name for t, falling back
// to the title-cased token for types outside the table.
func DisplayName(t Type) string {
	if d, ok := byType[t]; ok {
		return d.DisplayName
	}
	return cases.Title(language.Und).String(string(t))
}
