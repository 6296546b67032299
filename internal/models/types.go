package models

import "time"

type Form struct {
	Action    string `json:"action"`
	Method    string `json:"method,omitempty"`
	HasMailto bool   `json:"hasMailto,omitempty"`
}

// Page holds the signals parsed out of a fetched document.
type Page struct {
	FinalURL     string   `json:"finalUrl,omitempty"`
	StatusCode   int      `json:"statusCode,omitempty"`
	Redirects    int      `json:"redirects"`
	Title        string   `json:"title,omitempty"`
	Forms        []Form   `json:"forms,omitempty"`
	Anchors      []string `json:"anchors,omitempty"`
	MediaSources []string `json:"mediaSources,omitempty"`
	Favicon      bool     `json:"favicon"`
	IFrames      int      `json:"iframes"`
	ScriptText   string   `json:"-"`
	MouseOver    bool     `json:"mouseOver"`
}

type DomainInfo struct {
	Domain      string    `json:"domain"`
	Registered  bool      `json:"registered"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
	ExpiresAt   time.Time `json:"expiresAt,omitempty"`
	NameServers []string  `json:"nameServers,omitempty"`
}

type TLSInfo struct {
	Valid    bool      `json:"valid"`
	Issuer   string    `json:"issuer,omitempty"`
	NotAfter time.Time `json:"notAfter,omitempty"`
}

type FeatureValue struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// FeatureVector is ordered; position i always carries the same feature.
type FeatureVector []FeatureValue

func (v FeatureVector) Len() int { return len(v) }

func (v FeatureVector) Floats() []float64 {
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = float64(f.Value)
	}
	return out
}

func (v FeatureVector) Names() []string {
	out := make([]string, len(v))
	for i, f := range v {
		out[i] = f.Name
	}
	return out
}

func (v FeatureVector) Get(name string) (int, bool) {
	for _, f := range v {
		if f.Name == name {
			return f.Value, true
		}
	}
	return 0, false
}

type Label string

const (
	LabelPhishing   Label = "phishing"
	LabelLegitimate Label = "legitimate"
)

func (l Label) Valid() bool { return l == LabelPhishing || l == LabelLegitimate }

type Prediction struct {
	Model      string  `json:"model"`
	Label      Label   `json:"label,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Error      string  `json:"error,omitempty"`
}

func (p Prediction) OK() bool { return p.Error == "" }

type AnalysisResult struct {
	URL         string        `json:"url"`
	Normalized  string        `json:"normalizedUrl"`
	Features    FeatureVector `json:"features"`
	Predictions []Prediction  `json:"predictions"`
	Unavailable []string      `json:"unavailable,omitempty"`
	ElapsedMs   int64         `json:"elapsedMs"`
}
