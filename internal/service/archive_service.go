package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"session-token-server/config"
	"session-token-server/internal/model"
	"session-token-server/internal/util"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ArchiveService выгружает просроченные строки сессий в S3 перед их удалением
type ArchiveService struct {
	client *s3.Client
	bucket string
}

func NewArchiveService(ctx context.Context, cfg *config.S3Config) (*ArchiveService, error) {
	var client *s3.Client

	if cfg.Local {
		client = s3.New(s3.Options{
			Region: cfg.Region,
			Credentials: credentials.NewStaticCredentialsProvider(
				"minioadmin",
				"minioadmin",
				"",
			),
			BaseEndpoint: aws.String(cfg.Endpoint),
			UsePathStyle: true,
		})

		if err := createBucketIfNotExists(ctx, client, cfg.Bucket); err != nil {
			return nil, util.LogError("[ArchiveService] ошибка создания бакета", err)
		}
	} else {
		awsCfg, err := awsConfig.LoadDefaultConfig(ctx, awsConfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, util.LogError("[ArchiveService] ошибка загрузки AWS config", err)
		}
		client = s3.NewFromConfig(awsCfg)
	}

	return &ArchiveService{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

// createBucketIfNotExists создает бакет если он не существует
func createBucketIfNotExists(ctx context.Context, client *s3.Client, bucket string) error {
	_, err := client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(bucket),
	})

	if err == nil {
		return nil // Бакет уже существует
	}

	_, err = client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(bucket),
	})

	if err != nil {
		return util.LogError("[ArchiveService] ошибка создания бакета", err)
	}

	log.Printf("[ArchiveService] бакет %s успешно создан", bucket)
	return nil
}

// ArchiveSessions кладёт пачку строк одним JSON-объектом в бакет
func (s *ArchiveService) ArchiveSessions(ctx context.Context, sessions []*model.SessionToken) error {
	if len(sessions) == 0 {
		return nil
	}

	data, err := json.Marshal(sessions)
	if err != nil {
		return util.LogError("[ArchiveService] ошибка сериализации сессий", err)
	}

	key := fmt.Sprintf("sessions/purged/%d.json", time.Now().UnixMilli())

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return util.LogError("[ArchiveService] не удалось выгрузить сессии в S3", err)
	}

	log.Printf("[ArchiveService] заархивировано сессий: %d, ключ %s", len(sessions), key)
	return nil
}
