package storage

import "github.com/whetstoneresearch/marketdepth-v3/internal/model"

// Storage defines a sink for depth estimate records.
type Storage interface {
	PutEstimateBatch(records []model.EstimateRecord) error
}
