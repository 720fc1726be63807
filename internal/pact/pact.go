// Package pact models Pact specification v2 contracts and builds their
// interactions from analyzed request descriptors.
package pact

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/pawfa/pact-gen-ts/internal/pactaxios"
	"github.com/pawfa/pact-gen-ts/internal/syntax"
)

// JSDoc tags read from annotated functions.
const (
	TagPact           = "pact"
	TagDescription    = "pact-description"
	TagProviderState  = "pact-provider-state"
	TagResponseStatus = "pact-response-status"
	TagProvider       = "pact-provider"
)

// DefaultSpecification is the Pact specification version written to
// contract metadata.
const DefaultSpecification = "2.0.0"

// ErrInvalidStatus means @pact-response-status is not an HTTP status code.
var ErrInvalidStatus = errors.New("invalid response status")

// Pacticipant names a consumer or provider.
type Pacticipant struct {
	Name string `json:"name"`
}

// Contract is one consumer-provider pact file.
type Contract struct {
	Consumer     Pacticipant   `json:"consumer"`
	Provider     Pacticipant   `json:"provider"`
	Interactions []Interaction `json:"interactions"`
	Metadata     Metadata      `json:"metadata"`
}

// Metadata records the specification version of a contract.
type Metadata struct {
	PactSpecification struct {
		Version string `json:"version"`
	} `json:"pactSpecification"`
}

// Interaction is one request/response pair.
type Interaction struct {
	Description   string   `json:"description"`
	ProviderState string   `json:"providerState,omitempty"`
	Request       Request  `json:"request"`
	Response      Response `json:"response"`
}

type Request struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	Query  string `json:"query,omitempty"`
	Body   any    `json:"body,omitempty"`
}

type Response struct {
	Status int `json:"status"`
	Body   any `json:"body,omitempty"`
}

// NewContract returns an empty contract between consumer and provider.
// An empty version means DefaultSpecification.
func NewContract(consumer, provider, version string) *Contract {
	if version == "" {
		version = DefaultSpecification
	}
	c := &Contract{
		Consumer:     Pacticipant{Name: consumer},
		Provider:     Pacticipant{Name: provider},
		Interactions: []Interaction{},
	}
	c.Metadata.PactSpecification.Version = version
	return c
}

// Merge adds interactions, replacing existing ones with the same
// description, and keeps the list sorted by description.
func (c *Contract) Merge(interactions ...Interaction) {
	byDesc := make(map[string]int, len(c.Interactions))
	for i, in := range c.Interactions {
		byDesc[in.Description] = i
	}
	for _, in := range interactions {
		if i, ok := byDesc[in.Description]; ok {
			c.Interactions[i] = in
			continue
		}
		byDesc[in.Description] = len(c.Interactions)
		c.Interactions = append(c.Interactions, in)
	}
	sort.SliceStable(c.Interactions, func(i, j int) bool {
		return c.Interactions[i].Description < c.Interactions[j].Description
	})
}

// Annotations are the pact tags of one function.
type Annotations struct {
	Description   string
	ProviderState string
	Provider      string
	Status        int
}

// ParseAnnotations reads the pact tags. Values may be quoted. The
// description falls back to fallback, the status to 200.
func ParseAnnotations(tags map[string]string, fallback string) (Annotations, error) {
	a := Annotations{
		Description:   tagValue(tags, TagDescription),
		ProviderState: tagValue(tags, TagProviderState),
		Provider:      tagValue(tags, TagProvider),
		Status:        200,
	}
	if a.Description == "" {
		a.Description = fallback
	}
	if raw := tagValue(tags, TagResponseStatus); raw != "" {
		status, err := strconv.Atoi(raw)
		if err != nil || status < 100 || status > 599 {
			return Annotations{}, fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
		}
		a.Status = status
	}
	return a, nil
}

// IsAnnotated reports whether tags mark a function for contract generation.
func IsAnnotated(tags map[string]string) bool {
	_, ok := tags[TagPact]
	return ok
}

func tagValue(tags map[string]string, name string) string {
	v := strings.TrimSpace(tags[name])
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		v = v[1 : len(v)-1]
	}
	return v
}

// ValueProvider builds example JSON values for types.
type ValueProvider interface {
	Value(t syntax.Type) any
}

// BuildInteraction turns an analyzed request into an interaction.
func BuildInteraction(a Annotations, d pactaxios.RequestDescriptor, values ValueProvider) Interaction {
	in := Interaction{
		Description:   a.Description,
		ProviderState: a.ProviderState,
		Request: Request{
			Method: d.Method,
			Path:   d.Path,
			Query:  Query(d.QueryType, values),
		},
		Response: Response{Status: a.Status},
	}
	if d.RequestBodyType != nil {
		in.Request.Body = values.Value(d.RequestBodyType)
	}
	if d.ResponseBodyType != nil {
		in.Response.Body = values.Value(d.ResponseBodyType)
	}
	return in
}

// Query encodes example values for the properties of the query type,
// sorted by key. Array properties repeat their key.
func Query(t syntax.Type, values ValueProvider) string {
	if t == nil {
		return ""
	}
	q := url.Values{}
	for _, p := range t.Properties() {
		switch v := values.Value(p.Type).(type) {
		case nil:
		case []any:
			for _, item := range v {
				if item != nil {
					q.Add(p.Name, fmt.Sprint(item))
				}
			}
		case map[string]any:
			// Nested objects have no standard query encoding.
		default:
			q.Add(p.Name, fmt.Sprint(v))
		}
	}
	return q.Encode()
}
