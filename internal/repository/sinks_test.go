package repository

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"GridPulse/internal/domain/models"
	pkgkafka "GridPulse/pkg/kafka"
	"GridPulse/pkg/util"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"
)

type execCall struct {
	query string
	args  []any
}

type fakeExecer struct {
	calls  []execCall
	failOn string
}

func (f *fakeExecer) Exec(_ context.Context, q string, args ...any) error {
	f.calls = append(f.calls, execCall{query: q, args: args})
	if f.failOn != "" && strings.HasPrefix(q, f.failOn) {
		return errors.New("boom")
	}
	return nil
}

func emissionsTable(n int) *models.Table {
	t := &models.Table{Name: TableEmissions, Columns: Schemas[TableEmissions]}
	for i := 0; i < n; i++ {
		t.Rows = append(t.Rows, []any{time.Unix(int64(i), 0).UTC(), "NEM", 0.5})
	}
	return t
}

func TestClickHouseSinkReplacesTableInChunks(t *testing.T) {
	db := &fakeExecer{}
	sink := NewClickHouseSink(db, "gridpulse", "run-1", 2, nil)

	require.NoError(t, sink.Write(context.Background(), emissionsTable(5)))
	require.Len(t, db.calls, 6)

	assert.Equal(t, "CREATE DATABASE IF NOT EXISTS `gridpulse`", db.calls[0].query)
	assert.Equal(t, "DROP TABLE IF EXISTS `gridpulse`.`emissions`", db.calls[1].query)
	assert.Contains(t, db.calls[2].query, "`emissions_intensity` Float64")
	assert.Contains(t, db.calls[2].query, "`run_id` String")
	assert.Contains(t, db.calls[2].query, "ORDER BY (`timestamp`, `region`)")

	// 5 rows at 2 per chunk -> 3 inserts of 4 columns each.
	assert.Len(t, db.calls[3].args, 8)
	assert.Len(t, db.calls[5].args, 4)
	assert.Equal(t, "run-1", db.calls[5].args[3])
}

func TestClickHouseSinkNullableColumns(t *testing.T) {
	sql := createTableSQL("`db`.`t`", Schemas[TableFeatures])
	assert.Contains(t, sql, "`mean_price` Nullable(Float64)")
	assert.Contains(t, sql, "`anomaly_flag` Bool")
	assert.Contains(t, sql, "ORDER BY (`date`, `region`)")
}

func TestClickHouseSinkPropagatesErrors(t *testing.T) {
	db := &fakeExecer{failOn: "INSERT"}
	err := NewClickHouseSink(db, "gridpulse", "r", 10, nil).Write(context.Background(), emissionsTable(1))
	assert.ErrorContains(t, err, "clickhouse insert emissions")
}

type fakeProducer struct {
	topic string
	msgs  []pkgkafka.Message
}

func (f *fakeProducer) PublishBatch(_ context.Context, topic string, msgs []pkgkafka.Message) error {
	f.topic = topic
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeProducer) Close() error { return nil }

func TestAnomalyEventsAndPublish(t *testing.T) {
	day := time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC)
	recs := []models.DailyFeatureRecord{
		{Date: day, Region: models.RegionSA, MeanPrice: util.Float64(900), AnomalyFlag: true, AnomalyScore: util.Float64(4.2)},
		{Date: day, Region: models.RegionVIC, MeanPrice: util.Float64(-50), AnomalyFlag: true, AnomalyScore: util.Float64(-3.5)},
		{Date: day, Region: models.RegionNSW, MeanPrice: util.Float64(60), AnomalyScore: util.Float64(0.1)},
	}
	events := AnomalyEvents("run-9", recs, day)
	require.Len(t, events, 2)
	assert.Equal(t, "spike", events[0].Direction)
	assert.Equal(t, "drop", events[1].Direction)

	fp := &fakeProducer{}
	pub := NewKafkaAnomalyPublisher(fp, "nem.anomalies")
	require.NoError(t, pub.PublishAnomalies(context.Background(), events))
	assert.Equal(t, "nem.anomalies", fp.topic)
	require.Len(t, fp.msgs, 2)
	assert.Equal(t, []byte("SA1"), fp.msgs[0].Key)

	b, err := json.Marshal(fp.msgs[0].Value)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"date":"2025-01-08"`)
	assert.Contains(t, string(b), `"run_id":"run-9"`)
}

func TestParquetFeatureWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daily_price_features.parquet")
	recs := []models.DailyFeatureRecord{
		{Date: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Region: models.RegionNSW, MeanPrice: util.Float64(50)},
		{Date: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), Region: models.RegionNSW},
	}
	require.NoError(t, NewParquetFeatureWriter().Write(path, recs))

	fr, err := local.NewLocalFileReader(path)
	require.NoError(t, err)
	defer fr.Close()
	pr, err := reader.NewParquetReader(fr, new(featureParquetRecord), 1)
	require.NoError(t, err)
	defer pr.ReadStop()
	assert.EqualValues(t, 2, pr.GetNumRows())

	rows := make([]featureParquetRecord, 2)
	require.NoError(t, pr.Read(&rows))
	assert.Equal(t, "2025-01-01", rows[0].Date)
	assert.Equal(t, 50.0, *rows[0].MeanPrice)
	assert.Nil(t, rows[1].MeanPrice)
}

type fakeS3 struct {
	key, bucket, contentType, body string
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	b, _ := io.ReadAll(in.Body)
	f.key, f.bucket, f.contentType, f.body = *in.Key, *in.Bucket, *in.ContentType, string(b)
	return &s3.PutObjectOutput{}, nil
}

func TestS3ArchiveUpload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "daily_price_features.csv")
	require.NoError(t, WriteFrame(path, models.NewFrame([]string{"date"}, [][]string{{"2025-01-01"}})))

	api := &fakeS3{}
	archive := NewS3Archive(api, "bucket", "/nem/")
	key := archive.Key(time.Date(2025, 1, 9, 3, 0, 0, 0, time.UTC), "run-1", path)
	assert.Equal(t, "nem/2025-01-09/run-1/daily_price_features.csv", key)

	require.NoError(t, archive.Upload(context.Background(), key, path))
	assert.Equal(t, "bucket", api.bucket)
	assert.Equal(t, "text/csv", api.contentType)
	assert.Equal(t, "date\n2025-01-01\n", api.body)
}
