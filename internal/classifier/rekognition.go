package classifier

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/rekognition"
	"github.com/aws/aws-sdk-go/service/rekognition/rekognitioniface"

	"github.com/oshokin/catpoint/internal/logger"
)

// catLabel is the Rekognition label name for cats.
const catLabel = "Cat"

// maxLabels limits how many labels Rekognition returns per image.
const maxLabels = 20

// Rekognition classifies images with AWS Rekognition DetectLabels.
type Rekognition struct {
	// api is the Rekognition client.
	api rekognitioniface.RekognitionAPI
}

// NewRekognition wraps an existing Rekognition client.
func NewRekognition(api rekognitioniface.RekognitionAPI) *Rekognition {
	return &Rekognition{
		api: api,
	}
}

// NewRekognitionFromRegion builds a client from the default credential chain.
func NewRekognitionFromRegion(region string) (*Rekognition, error) {
	sess, err := session.NewSessionWithOptions(session.Options{
		Config: aws.Config{
			Region: aws.String(region),
		},
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}

	return NewRekognition(rekognition.New(sess)), nil
}

// ContainsCat uploads the image as PNG and reports whether a cat label was
// returned with at least the requested confidence.
func (r *Rekognition) ContainsCat(ctx context.Context, img image.Image, confidenceThreshold float32) (bool, error) {
	if img == nil {
		return false, ErrNoImage
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return false, fmt.Errorf("encode image: %w", err)
	}

	output, err := r.api.DetectLabelsWithContext(ctx, &rekognition.DetectLabelsInput{
		Image: &rekognition.Image{
			Bytes: buf.Bytes(),
		},
		MaxLabels:     aws.Int64(maxLabels),
		MinConfidence: aws.Float64(float64(confidenceThreshold)),
	})
	if err != nil {
		return false, fmt.Errorf("detect labels: %w", err)
	}

	for _, label := range output.Labels {
		name := aws.StringValue(label.Name)
		confidence := aws.Float64Value(label.Confidence)

		logger.DebugKV(ctx, "Rekognition label", "name", name, "confidence", confidence)

		if strings.EqualFold(name, catLabel) && confidence >= float64(confidenceThreshold) {
			return true, nil
		}
	}

	return false, nil
}
