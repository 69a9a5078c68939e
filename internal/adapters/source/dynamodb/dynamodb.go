// Package dynamodb loads snapshots from DynamoDB tables. It is read-only;
// submissions need a writable source.
package dynamodb

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/okian/scoreline/internal/adapters/source"
	"github.com/okian/scoreline/internal/domain/model"
)

// Key attributes of the three tables.
const (
	attrGameID = "id"
	attrUserID = "userId"
)

// Config names the tables and where to reach them. ProfilesTable may be
// empty to run without a profile lookup.
type Config struct {
	Region           string
	Endpoint         string
	GamesTable       string
	PredictionsTable string
	ProfilesTable    string
}

// Source scans the configured tables on every Load.
type Source struct {
	client dynamodb.ScanAPIClient
	cfg    Config
}

// New builds a client from the default AWS credential chain.
func New(ctx context.Context, cfg Config) (*Source, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewWithClient(client, cfg), nil
}

// NewWithClient uses an existing client.
func NewWithClient(client dynamodb.ScanAPIClient, cfg Config) *Source {
	return &Source{client: client, cfg: cfg}
}

// Name implements source.Source.
func (s *Source) Name() string { return source.KindDynamoDB }

// Load implements source.Source. Scan order carries no meaning, so
// prediction documents are ordered by user id.
func (s *Source) Load(ctx context.Context) (model.Snapshot, error) {
	snap := model.Snapshot{TakenAt: time.Now().UTC()}

	games, err := s.scan(ctx, s.cfg.GamesTable)
	if err != nil {
		return model.Snapshot{}, err
	}
	for _, rec := range games {
		g, err := source.DecodeGame("", rec)
		if err != nil {
			return model.Snapshot{}, fmt.Errorf("table %s: %w", s.cfg.GamesTable, err)
		}
		snap.Games = append(snap.Games, g)
	}

	preds, err := s.scan(ctx, s.cfg.PredictionsTable)
	if err != nil {
		return model.Snapshot{}, err
	}
	for _, rec := range preds {
		userID, _ := rec[attrUserID].(string)
		if userID == "" {
			return model.Snapshot{}, fmt.Errorf("%w: table %s item without %s", source.ErrInvalidRecord, s.cfg.PredictionsTable, attrUserID)
		}
		snap.Predictions = append(snap.Predictions, source.DecodeDocument(userID, rec))
	}
	sort.SliceStable(snap.Predictions, func(i, j int) bool {
		return snap.Predictions[i].UserID < snap.Predictions[j].UserID
	})

	if s.cfg.ProfilesTable != "" {
		profiles, err := s.scan(ctx, s.cfg.ProfilesTable)
		if err != nil {
			return model.Snapshot{}, err
		}
		snap.Profiles = make(map[string]model.Profile, len(profiles))
		for _, rec := range profiles {
			if userID, _ := rec[attrUserID].(string); userID != "" {
				snap.Profiles[userID] = source.DecodeProfile(userID, rec)
			}
		}
	}
	return snap, nil
}

func (s *Source) scan(ctx context.Context, table string) ([]map[string]any, error) {
	var out []map[string]any
	p := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{TableName: aws.String(table)})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to scan table '%s': %w", table, err)
		}
		for _, item := range page.Items {
			var rec map[string]any
			if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
				return nil, fmt.Errorf("failed to unmarshal item of '%s': %w", table, err)
			}
			out = append(out, rec)
		}
	}
	return out, nil
}
