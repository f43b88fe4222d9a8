package infrastructure

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/phihc116/attr-backfill/internals/config"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	dynamoDbClient *dynamodb.Client
	sqlClient      *gorm.DB
)

func InitDynamoDb(ctx context.Context, cfg config.AWSConf) error {
	httpClient := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        200,
			MaxIdleConnsPerHost: 50,
		},
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithHTTPClient(httpClient),
	)
	if err != nil {
		return fmt.Errorf("error loading AWS config: %w", err)
	}

	if cfg.Endpoint != "" {
		awsCfg.BaseEndpoint = aws.String(cfg.Endpoint)
	}

	dynamoDbClient = dynamodb.NewFromConfig(awsCfg)
	return nil
}

func GetDynamoDbClient() *dynamodb.Client {
	if dynamoDbClient == nil {
		panic("DynamoDB client is not initialized. Call InitDynamoDb() first.")
	}
	return dynamoDbClient
}

func InitSQLServer(dsn string) error {
	var err error
	sqlClient, err = gorm.Open(sqlserver.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to connect SQL Server: %w", err)
	}
	return nil
}

// GetSQLClient returns nil when the ledger is disabled.
func GetSQLClient() *gorm.DB {
	return sqlClient
}

func CloseSQL() {
	if sqlClient != nil {
		sqlDB, err := sqlClient.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	}
}

// InitDataStore creates the DynamoDB client and, when a DSN is configured, the ledger connection.
func InitDataStore(ctx context.Context, cfg *config.Config) error {
	if err := InitDynamoDb(ctx, cfg.AWS); err != nil {
		return err
	}
	if cfg.Ledger.DSN == "" {
		return nil
	}
	return InitSQLServer(cfg.Ledger.DSN)
}
