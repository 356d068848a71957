package modaics

import (
	"context"

	"github.com/modaics/modaics-go/internal/types"
)

// analysisService implements the AnalysisService interface
type analysisService struct {
	client *Client
}

func (s *analysisService) AnalyzeImage(ctx context.Context, imageData string) (*AnalysisResult, error) {
	var result AnalysisResult
	err := s.client.t().Execute(ctx, &types.Request{
		Name:         "analyze_image",
		Method:       "POST",
		Path:         "/analyze_image",
		Body:         map[string]interface{}{"image_data": imageData},
		RequiresAuth: true,
		Timeout:      s.client.config().UploadTimeout,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *analysisService) GenerateDescription(ctx context.Context, analysis *AnalysisResult) (*GeneratedDescription, error) {
	var result GeneratedDescription
	err := s.client.t().Execute(ctx, &types.Request{
		Name:         "generate_description",
		Method:       "POST",
		Path:         "/generate_description",
		Body:         analysis,
		RequiresAuth: true,
		Timeout:      s.client.config().UploadTimeout,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}
