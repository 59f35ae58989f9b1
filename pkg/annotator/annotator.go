// Package annotator produces additional source analyses for
// under-annotated items using the Anthropic vision API.
package annotator

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"

	"github.com/sells-group/curation-cli/internal/model"
)

const systemPrompt = `You are an image annotation producer. Analyze the image and respond with a single JSON object, no prose, with these keys:
category (string), headline (string), summary (string),
extracted_text (array of strings, one per visible text block),
saliency_hierarchy (array of strings, most salient first),
objects (array of strings), themes (array of strings),
emotions (array of strings), vibes (array of strings),
key_interest (string), likely_source (string).`

// Request is one image to annotate.
type Request struct {
	// MediaType is the image MIME type, e.g. image/jpeg.
	MediaType string
	// Data is the raw image bytes.
	Data []byte
}

// Result is one produced annotation.
type Result struct {
	Content model.AnalysisContent
	Model   string
}

// Client defines the annotation operation.
type Client interface {
	Annotate(ctx context.Context, req Request) (*Result, error)
}

type sdkClient struct {
	client sdk.Client
	model  string
}

// NewClient creates an annotator backed by the Anthropic SDK.
func NewClient(apiKey, modelID string) Client {
	return &sdkClient{
		client: sdk.NewClient(option.WithAPIKey(apiKey)),
		model:  modelID,
	}
}

func (c *sdkClient) Annotate(ctx context.Context, req Request) (*Result, error) {
	if len(req.Data) == 0 {
		return nil, eris.New("annotator: empty image data")
	}
	mediaType := req.MediaType
	if mediaType == "" {
		mediaType = "image/jpeg"
	}

	encoded := base64.StdEncoding.EncodeToString(req.Data)
	msg, err := c.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: 2048,
		System:    []sdk.TextBlockParam{{Text: systemPrompt}},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(
				sdk.NewImageBlockBase64(mediaType, encoded),
				sdk.NewTextBlock("Annotate this image."),
			),
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "annotator: create message")
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if text == "" {
		return nil, eris.New("annotator: response has no text content")
	}

	content, err := parseContent(text)
	if err != nil {
		return nil, err
	}
	return &Result{Content: content, Model: string(msg.Model)}, nil
}

// parseContent extracts the JSON object from the model's reply. Code
// fences and surrounding prose are tolerated.
func parseContent(text string) (model.AnalysisContent, error) {
	var content model.AnalysisContent

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return content, eris.New("annotator: no JSON object in response")
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &content); err != nil {
		return content, eris.Wrap(err, "annotator: parse response json")
	}
	return content, nil
}
