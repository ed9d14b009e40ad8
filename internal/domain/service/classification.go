package service

import "EMAScan/internal/domain/models"

// Classifier turns raw per-coin results into classified assets.
type Classifier interface {
	Classify(results []models.CoinResult) []models.ClassifiedAsset
}

// Bucketer groups classified assets into strategic buckets.
type Bucketer interface {
	Bucket(assets []models.ClassifiedAsset) models.Buckets
}
