// Package extract turns survey document images into structured
// ExtractionRecords via the Anthropic vision API, and loads records that
// were extracted out-of-band from JSON files.
package extract

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/georef-cli/internal/model"
)

// Extractor produces structured survey data from a document image.
type Extractor interface {
	ExtractSurvey(ctx context.Context, imagePath string) (*model.ExtractionRecord, error)
}

const extractionPrompt = `Analyze this property survey document and extract the survey data as JSON with this exact structure:
{
  "property_details": {
    "addresses": [],
    "parcel_numbers": [],
    "legal_description": "",
    "area_measurements": {"acres": 0, "square_feet": 0},
    "reference_points": {"road_references": [], "monuments": []}
  },
  "boundary_coordinates": {"vertices": [{"point_id": "", "description": ""}]},
  "measurements": {"bearings": [], "distances": []},
  "additional_info": {"scale": "", "north_arrow": "", "surveyor_info": "", "county": "", "state": "", "country": ""},
  "confidence_score": 0.0
}
List bearings and distances in traverse order as written on the document (e.g. "N45°30'00\"E", "660.00'"). Respond with only the JSON object.`

// mediaTypes maps file extensions to the API's accepted image types.
var mediaTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// SDKExtractor implements Extractor using the official anthropic-sdk-go.
type SDKExtractor struct {
	client sdk.Client
	model  string
}

// NewExtractor creates an Extractor for the given API key and model.
func NewExtractor(apiKey, modelID string) *SDKExtractor {
	return &SDKExtractor{
		client: sdk.NewClient(option.WithAPIKey(apiKey)),
		model:  modelID,
	}
}

// ExtractSurvey sends the image and parses the model's JSON reply.
func (e *SDKExtractor) ExtractSurvey(ctx context.Context, imagePath string) (*model.ExtractionRecord, error) {
	mediaType, ok := mediaTypes[strings.ToLower(filepath.Ext(imagePath))]
	if !ok {
		return nil, eris.Errorf("extract: unsupported image type %s", filepath.Ext(imagePath))
	}

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, eris.Wrapf(err, "extract: read image %s", imagePath)
	}

	msg, err := e.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(e.model),
		MaxTokens: 4096,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(
				sdk.NewImageBlockBase64(mediaType, base64.StdEncoding.EncodeToString(data)),
				sdk.NewTextBlock(extractionPrompt),
			),
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "extract: create message")
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	record, err := ParseRecord([]byte(stripFences(text)))
	if err != nil {
		return nil, err
	}
	zap.L().Info("extract: survey extracted",
		zap.String("image", imagePath),
		zap.Int("bearings", len(record.Measurements.Bearings)),
		zap.Float64("confidence", record.ConfidenceScore),
	)
	return record, nil
}

// stripFences removes a markdown code fence if the model wrapped its JSON
// in one despite the prompt.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// ParseRecord decodes an extraction record from JSON.
func ParseRecord(data []byte) (*model.ExtractionRecord, error) {
	var record model.ExtractionRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, eris.Wrap(err, "extract: parse record")
	}
	return &record, nil
}

// LoadRecord reads an extraction record from a JSON file, for documents
// extracted out-of-band.
func LoadRecord(path string) (*model.ExtractionRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "extract: read record %s", path)
	}
	return ParseRecord(data)
}
