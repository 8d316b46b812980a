// Package archive keeps a JSON receipt of every completed appointment in S3.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/BruksfildServices01/studio-agenda/internal/domain/ledger"
	"github.com/BruksfildServices01/studio-agenda/internal/domain/pricing"
	"github.com/BruksfildServices01/studio-agenda/internal/models"
)

// S3API is the subset of the S3 client used here.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Receipt struct {
	AppointmentID uint                       `json:"appointment_id"`
	BusinessID    uint                       `json:"business_id"`
	ClientID      uint                       `json:"client_id"`
	Service       string                     `json:"service"`
	StartTime     time.Time                  `json:"start_time"`
	EndTime       time.Time                  `json:"end_time"`
	Price         pricing.Breakdown          `json:"price"`
	RewardID      *uint                      `json:"reward_id,omitempty"`
	Materials     []models.ConsumptionRecord `json:"materials,omitempty"`
	MaterialCost  decimal.Decimal            `json:"material_cost"`
	Rating        *int                       `json:"rating,omitempty"`
	CompletedAt   time.Time                  `json:"completed_at"`
}

// NewReceipt builds the receipt of a completed appointment.
func NewReceipt(ap *models.Appointment, records []models.ConsumptionRecord) Receipt {
	service := ap.CustomName
	if ap.Service != nil {
		service = ap.Service.Name
	}

	completed := ap.UpdatedAt
	if ap.CompletedAt != nil {
		completed = *ap.CompletedAt
	}

	return Receipt{
		AppointmentID: ap.ID,
		BusinessID:    ap.BusinessID,
		ClientID:      ap.ClientID,
		Service:       service,
		StartTime:     ap.StartTime,
		EndTime:       ap.EndTime,
		Price: pricing.Breakdown{
			Base:     ap.BaseValue,
			Discount: ap.DiscountValue,
			Final:    ap.FinalValue,
		},
		RewardID:     ap.RewardID,
		Materials:    records,
		MaterialCost: ledger.TotalCost(records),
		Rating:       ap.Rating,
		CompletedAt:  completed,
	}
}

type Store struct {
	bucket   string
	s3Client S3API
	logger   zerolog.Logger
}

// NewStore: sem bucket todas as operações são no-op.
func NewStore(s3Client S3API, bucket string, logger zerolog.Logger) *Store {
	return &Store{
		bucket:   bucket,
		s3Client: s3Client,
		logger:   logger.With().Str("component", "archive").Logger(),
	}
}

// NewS3Client monta o cliente a partir das credenciais estáticas da config.
// Sem chave explícita o SDK usa a cadeia padrão do ambiente.
func NewS3Client(region, accessKey, secretKey string) *s3.Client {
	opts := s3.Options{Region: region}
	if accessKey != "" && secretKey != "" {
		opts.Credentials = credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")
	}
	return s3.New(opts)
}

func (s *Store) Enabled() bool {
	return s != nil && s.bucket != "" && s.s3Client != nil
}

func ReceiptKey(r Receipt) string {
	at := r.CompletedAt.UTC()
	return fmt.Sprintf("receipts/v1/%d/%d/%02d/%d.json", r.BusinessID, at.Year(), at.Month(), r.AppointmentID)
}

// Archive grava o recibo. Retorna a chave usada ("" quando desabilitado).
func (s *Store) Archive(ctx context.Context, r Receipt) (string, error) {
	if !s.Enabled() {
		return "", nil
	}

	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("archive: marshal receipt: %w", err)
	}

	key := ReceiptKey(r)
	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("archive: s3 put %s: %w", key, err)
	}

	s.logger.Info().
		Uint("appointment_id", r.AppointmentID).
		Str("s3_key", key).
		Msg("receipt archived")
	return key, nil
}
