package gemini

// GenerateRequest is the body of models/{model}:generateContent
type GenerateRequest struct {
	Contents         []Content         `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
	Tools            []Tool            `json:"tools,omitempty"`
	ToolConfig       *ToolConfig       `json:"toolConfig,omitempty"`
}

type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

type Part struct {
	Text string `json:"text,omitempty"`
}

type GenerationConfig struct {
	Temperature float64 `json:"temperature"`
}

// Tool enables grounding. An empty GoogleMaps object turns on Maps grounding.
type Tool struct {
	GoogleMaps *struct{} `json:"googleMaps,omitempty"`
}

type ToolConfig struct {
	RetrievalConfig RetrievalConfig `json:"retrievalConfig"`
}

type RetrievalConfig struct {
	LatLng LatLng `json:"latLng"`
}

type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// GenerateResponse is the subset of the API response the bot reads
type GenerateResponse struct {
	Candidates []Candidate `json:"candidates"`
}

type Candidate struct {
	Content           Content            `json:"content"`
	FinishReason      string             `json:"finishReason,omitempty"`
	GroundingMetadata *GroundingMetadata `json:"groundingMetadata,omitempty"`
}

type GroundingMetadata struct {
	GroundingChunks []GroundingChunk `json:"groundingChunks"`
}

type GroundingChunk struct {
	Maps *GroundingSource `json:"maps,omitempty"`
	Web  *GroundingSource `json:"web,omitempty"`
}

type GroundingSource struct {
	URI   string `json:"uri"`
	Title string `json:"title,omitempty"`
}

// Text concatenates the text parts of the first candidate
func (r *GenerateResponse) Text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var text string
	for _, p := range r.Candidates[0].Content.Parts {
		text += p.Text
	}
	return text
}

// GroundingLinks returns the maps or web URIs cited by the first candidate
func (r *GenerateResponse) GroundingLinks() []string {
	if len(r.Candidates) == 0 || r.Candidates[0].GroundingMetadata == nil {
		return nil
	}
	var links []string
	for _, chunk := range r.Candidates[0].GroundingMetadata.GroundingChunks {
		switch {
		case chunk.Maps != nil && chunk.Maps.URI != "":
			links = append(links, chunk.Maps.URI)
		case chunk.Web != nil && chunk.Web.URI != "":
			links = append(links, chunk.Web.URI)
		}
	}
	return links
}
