package mysql

import "github.com/TasksFlow/TasksFlowBackend/pkg/store/mysql/model"

// Repository aggregates all MySQL repositories
type Repository struct {
	ds *Datastore

	SystemMetrics *SystemMetricsRepository
	GPUMetrics    *GPUMetricsRepository
	TaskMetrics   *TaskMetricsRepository
	Alert         *AlertRepository
}

// NewRepository creates a new MySQL repository with all sub-repositories
func NewRepository(dsn string) (*Repository, error) {
	ds, err := NewDatastore(dsn)
	if err != nil {
		return nil, err
	}

	return &Repository{
		ds:            ds,
		SystemMetrics: NewSystemMetricsRepository(ds),
		GPUMetrics:    NewGPUMetricsRepository(ds),
		TaskMetrics:   NewTaskMetricsRepository(ds),
		Alert:         NewAlertRepository(ds),
	}, nil
}

// AutoMigrate creates or updates the metric tables
func (r *Repository) AutoMigrate() error {
	return r.ds.GetDB().AutoMigrate(
		&model.SystemMetrics{},
		&model.GPUMetrics{},
		&model.TaskMetrics{},
		&model.MonitoringAlert{},
	)
}

// GetDatastore returns the underlying datastore for transaction support
func (r *Repository) GetDatastore() *Datastore {
	return r.ds
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.ds.Close()
}
