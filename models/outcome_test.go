package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcomeMarshal(t *testing.T) {
	ok := Ok(LinguisticSignal{Score: 0.7, Flag: "neutral"})
	data, err := json.Marshal(ok)
	require.NoError(t, err)
	assert.JSONEq(t, `{"score":0.7,"flag":"neutral"}`, string(data))

	failed := Fail[LinguisticSignal]("boom")
	data, err = json.Marshal(failed)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"boom"}`, string(data))
}

func TestOutcomeUnmarshal(t *testing.T) {
	var o Outcome[VisualAssessment]
	require.NoError(t, json.Unmarshal([]byte(`{"error":"bad json"}`), &o))
	assert.False(t, o.OK())
	assert.Equal(t, "bad json", o.Err())

	require.NoError(t, json.Unmarshal([]byte(`{"verdict":"Indeterminate","confidence_score":0.3,"reasoning":"r"}`), &o))
	v, ok := o.Value()
	require.True(t, ok)
	assert.Equal(t, VerdictIndeterminate, v.Verdict)
	assert.Empty(t, o.Err())
}

func TestParseProvenance(t *testing.T) {
	tests := []struct {
		in   string
		want Provenance
	}{
		{"camera", ProvenanceCamera},
		{" Camera ", ProvenanceCamera},
		{"downloaded", ProvenanceDownloaded},
		{"messaging", ProvenanceMessaging},
		{"unknown", ProvenanceUnknown},
		{"", ProvenanceUnknown},
		{"scanner", ProvenanceUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseProvenance(tt.in), "ParseProvenance(%q)", tt.in)
	}
}

func TestAnalysisResultNullAuxiliaryFields(t *testing.T) {
	res := AnalysisResult{Verdict: VerdictAnalysisComplete, Enrichment: []string{}, Sources: []string{}}
	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"verdict":"Analysis Complete","confidence_score":0,"explanation":"","correction":null,
		"enrichment":[],"sources":[],
		"linguistic_analysis":null,"image_analysis":null,"image_authenticity":null
	}`, string(data))
}
