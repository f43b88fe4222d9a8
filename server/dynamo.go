package server

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/phihc116/attr-backfill/internals/backfill"
	"github.com/phihc116/attr-backfill/internals/models"
)

// DynamoDBAPI is the part of *dynamodb.Client the backfill needs.
type DynamoDBAPI interface {
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// Dynamo implements backfill.Store on top of DynamoDB.
type Dynamo struct {
	DynamoDBAPI
	ConsistentRead bool
}

var _ backfill.Store = (*Dynamo)(nil)

func NewDynamo(api DynamoDBAPI, consistentRead bool) *Dynamo {
	return &Dynamo{DynamoDBAPI: api, ConsistentRead: consistentRead}
}

func (d *Dynamo) Scan(ctx context.Context, table string, limit int32, token backfill.PageToken) ([]models.Record, backfill.PageToken, error) {
	in := &dynamodb.ScanInput{
		TableName:         aws.String(table),
		Limit:             aws.Int32(limit),
		ExclusiveStartKey: token,
	}
	if d.ConsistentRead {
		in.ConsistentRead = aws.Bool(true)
	}

	out, err := d.DynamoDBAPI.Scan(ctx, in)
	if err != nil {
		return nil, nil, fmt.Errorf("scan failed: %w", err)
	}

	items := make([]models.Record, 0, len(out.Items))
	for _, it := range out.Items {
		items = append(items, models.Record(it))
	}

	var next backfill.PageToken
	if len(out.LastEvaluatedKey) > 0 {
		next = out.LastEvaluatedKey
	}
	return items, next, nil
}

// Update issues SET attribute = value with no condition and returns the item as stored.
func (d *Dynamo) Update(ctx context.Context, table string, key models.Record, attribute string, value any) (models.Record, error) {
	expr, err := expression.NewBuilder().
		WithUpdate(expression.Set(expression.Name(attribute), expression.Value(value))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build update expression: %w", err)
	}

	out, err := d.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(table),
		Key:                       key,
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		return nil, fmt.Errorf("update failed: %w", err)
	}
	return models.Record(out.Attributes), nil
}
