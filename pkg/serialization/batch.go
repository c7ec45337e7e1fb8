package serialization

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/lk2023060901/serdekit/pkg/log"
	"github.com/lk2023060901/serdekit/pkg/util/conc"
	"github.com/lk2023060901/serdekit/pkg/util/merr"
)

// 空闲超过该时间的批量编码 worker 会被回收。
const batchWorkerExpiry = 30 * time.Second

// SerializeBatch 在有界协程池上并发地将 values 编码为文本。
//
// 结果顺序与输入一致；出错时返回按输入顺序的第一个错误。
// ctx 被取消后尚未开始的编码不再执行。handler 内的 panic 被转换为
// ErrServiceInternal 返回，不会传播到调用方。
func (m *Manager) SerializeBatch(ctx context.Context, values []any) ([]string, error) {
	pool, err := m.pool()
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return []string{}, nil
	}

	futures := make([]*conc.Future[string], 0, len(values))
	for _, v := range values {
		v := v
		futures = append(futures, pool.Submit(func() (string, error) {
			if err := ctx.Err(); err != nil {
				return "", err
			}
			return m.SerializeToText(v)
		}))
	}
	if err := conc.AwaitAll(futures...); err != nil {
		if !merr.IsCanceledOrTimeout(err) {
			m.Logger().Warn("serialize batch failed",
				zap.Int("size", len(values)),
				zap.Int("running", pool.Running()),
				zap.Error(err))
		}
		return nil, err
	}

	texts := make([]string, len(futures))
	for i, f := range futures {
		texts[i] = f.Value()
	}
	return texts, nil
}

func (m *Manager) pool() (*conc.Pool[string], error) {
	if m.closed.Load() {
		return nil, merr.WrapErrOperationNotSupported("serialize batch", "manager closed")
	}
	m.batchPoolOnce.Do(func() {
		m.batchPool = conc.NewPool[string](m.batchConcurrency,
			conc.WithExpiryDuration(batchWorkerExpiry),
			conc.WithConcealPanic(true),
			conc.WithLogger(m.Logger().With(log.FieldComponent("batch"))),
		)
	})
	if m.batchPool == nil {
		// Close 抢先执行了 batchPoolOnce。
		return nil, merr.WrapErrOperationNotSupported("serialize batch", "manager closed")
	}
	return m.batchPool, nil
}
