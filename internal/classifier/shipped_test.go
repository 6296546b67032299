package classifier

import (
	"testing"

	"phishguard/internal/features"
	"phishguard/internal/models"
)

// The demo artifacts in models/ must stay loadable against the live catalog.
func TestShippedModelsLoad(t *testing.T) {
	r := LoadRegistry("../../models", DefaultModels, features.Names(), nil)
	if u := r.Unavailable(); len(u) != 0 {
		for _, e := range r.Entries() {
			if e.Err != nil {
				t.Errorf("%s: %v", e.Name, e.Err)
			}
		}
		t.Fatalf("unavailable: %v", u)
	}

	// a bare IP over plain http with a fresh, feed-listed domain
	phishy := features.Compute(&features.Evidence{})
	set := func(vec models.FeatureVector, vals map[string]int) models.FeatureVector {
		out := append(models.FeatureVector(nil), vec...)
		for i := range out {
			if v, ok := vals[out[i].Name]; ok {
				out[i].Value = v
			}
		}
		return out
	}
	bad := set(phishy, map[string]int{
		"having_ip_address": -1, "url_length": 120, "prefix_suffix": 1, "sslfinal_state": -1,
		"age_of_domain": -1, "dnsrecord": -1, "sfh": 1, "statistical_report": 1,
	})
	good := set(phishy, map[string]int{
		"having_ip_address": 1, "url_length": 24, "prefix_suffix": -1, "sslfinal_state": 1,
		"age_of_domain": 1, "dnsrecord": 1, "sfh": -1, "statistical_report": -1,
		"url_of_anchor": 1, "having_sub_domain": -1, "domain_registration_length": 1,
	})
	for _, e := range r.Available() {
		if p, err := Predict(e.Model, bad); err != nil || p.Label != models.LabelPhishing {
			t.Errorf("%s on phishy vector: %+v %v", e.Name, p, err)
		}
		if p, err := Predict(e.Model, good); err != nil || p.Label != models.LabelLegitimate {
			t.Errorf("%s on clean vector: %+v %v", e.Name, p, err)
		}
	}
}
