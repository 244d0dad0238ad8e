package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/apex/log"

	"damage-portal/internal/document"
	"damage-portal/internal/domain/entity"
	"damage-portal/internal/domain/port"
	"damage-portal/internal/metrics"
)

var (
	// ErrAnalysisUnavailable анализ запускается только по найденным деталям.
	ErrAnalysisUnavailable = errors.New("damage analysis needs part detections")
	// ErrBusy предыдущий запрос того же вида ещё выполняется.
	ErrBusy = errors.New("request already in progress")
	// ErrSuperseded изображение или задача сменились, пока ждали ответ.
	ErrSuperseded = errors.New("result superseded by a newer request")
)

// AppliedFunc вызывается, когда отложенный результат детекции применён.
type AppliedFunc func(chatID int64, snap Snapshot)

// InspectionService ведёт просмотр изображений по чатам.
type InspectionService struct {
	users     *UserService
	images    port.ImageSource
	predictor port.Predictor
	analyzer  port.DamageAnalyzer
	chatSvc   port.ChatService
	documents *document.Builder
	delay     DelayFunc

	mu        sync.RWMutex
	viewers   map[int64]*viewer
	onApplied AppliedFunc
}

// NewInspectionService создаёт сервис просмотра и анализа изображений.
func NewInspectionService(
	users *UserService,
	images port.ImageSource,
	predictor port.Predictor,
	analyzer port.DamageAnalyzer,
	chatSvc port.ChatService,
	documents *document.Builder,
	delay DelayFunc,
) *InspectionService {
	return &InspectionService{
		users:     users,
		images:    images,
		predictor: predictor,
		analyzer:  analyzer,
		chatSvc:   chatSvc,
		documents: documents,
		delay:     delay,
		viewers:   make(map[int64]*viewer),
	}
}

// OnApplied задаёт обработчик применённых результатов детекции.
func (s *InspectionService) OnApplied(fn AppliedFunc) {
	s.mu.Lock()
	s.onApplied = fn
	s.mu.Unlock()
}

func (s *InspectionService) lookup(ctx context.Context, userID, chatID int64) (*viewer, error) {
	s.mu.RLock()
	v, ok := s.viewers[chatID]
	s.mu.RUnlock()
	if ok {
		return v, nil
	}

	user, err := s.users.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.viewers[chatID]; ok {
		return v, nil
	}
	v = newViewer(user.Task, s.chatSvc)
	s.viewers[chatID] = v
	return v, nil
}

// LoadImages загружает список изображений с бэкенда.
func (s *InspectionService) LoadImages(ctx context.Context, userID, chatID int64) (Snapshot, error) {
	v, err := s.lookup(ctx, userID, chatID)
	if err != nil {
		return Snapshot{}, err
	}

	images, err := s.images.ListImages(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.err = err.Error()
		return v.snapshot(), err
	}
	if len(images) == 0 {
		v.setImages(nil)
		return v.snapshot(), entity.ErrNoImages
	}
	v.setImages(images)
	return v.snapshot(), nil
}

// Next переходит к следующему изображению; на последнем остаётся на месте.
func (s *InspectionService) Next(ctx context.Context, userID, chatID int64) (Snapshot, error) {
	return s.move(ctx, userID, chatID, 1)
}

// Prev переходит к предыдущему изображению; на первом остаётся на месте.
func (s *InspectionService) Prev(ctx context.Context, userID, chatID int64) (Snapshot, error) {
	return s.move(ctx, userID, chatID, -1)
}

func (s *InspectionService) move(ctx context.Context, userID, chatID int64, delta int) (Snapshot, error) {
	v, err := s.lookup(ctx, userID, chatID)
	if err != nil {
		return Snapshot{}, err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.images) == 0 {
		return v.snapshot(), entity.ErrNoImages
	}
	v.move(delta)
	return v.snapshot(), nil
}

// SetTask переключает режим распознавания и сбрасывает результаты.
func (s *InspectionService) SetTask(ctx context.Context, userID, chatID int64, task entity.Task) (Snapshot, error) {
	if _, err := s.users.SetTask(ctx, userID, chatID, task); err != nil {
		return Snapshot{}, err
	}
	v, err := s.lookup(ctx, userID, chatID)
	if err != nil {
		return Snapshot{}, err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.setTask(task)
	return v.snapshot(), nil
}

// Predict запрашивает детекцию для текущего изображения. Результат
// применяется позже, через случайную задержку, и только если за это время
// не сменились изображение, задача или не начался новый запрос.
func (s *InspectionService) Predict(ctx context.Context, userID, chatID int64) error {
	v, err := s.lookup(ctx, userID, chatID)
	if err != nil {
		return err
	}

	v.mu.Lock()
	image := v.current()
	if image == "" {
		v.mu.Unlock()
		return entity.ErrNoImages
	}
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
	v.seq++
	token, task := v.seq, v.task
	v.loading = true
	v.err = ""
	v.mu.Unlock()

	res, err := s.predictor.Predict(ctx, image, task)
	metrics.PredictionsTotal.WithLabelValues(string(task), metrics.Result(err)).Inc()

	v.mu.Lock()
	defer v.mu.Unlock()
	if token != v.seq {
		metrics.PredictionsDiscarded.Inc()
		return ErrSuperseded
	}
	if err != nil {
		log.WithError(err).WithFields(log.Fields{"chat": chatID, "image": image}).Warn("prediction failed")
		v.err = err.Error()
		v.loading = false
		return err
	}

	delay := s.delay()
	v.timer = time.AfterFunc(delay, func() {
		s.apply(chatID, v, token, res)
	})
	log.WithFields(log.Fields{
		"chat":       chatID,
		"image":      image,
		"task":       task,
		"detections": len(res.Predictions),
		"delay":      delay,
	}).Debug("prediction scheduled")
	return nil
}

func (s *InspectionService) apply(chatID int64, v *viewer, token uint64, res *entity.PredictionResult) {
	v.mu.Lock()
	if token != v.seq {
		v.mu.Unlock()
		metrics.PredictionsDiscarded.Inc()
		return
	}
	meta := res.Meta()
	v.detections = res.Predictions
	v.meta = &meta
	v.loading = false
	v.timer = nil
	snap := v.snapshot()
	v.mu.Unlock()

	s.mu.RLock()
	fn := s.onApplied
	s.mu.RUnlock()
	if fn != nil {
		fn(chatID, snap)
	}
}

// Analyze запрашивает отчёт о повреждениях по найденным деталям.
// При ошибке прежний отчёт сохраняется.
func (s *InspectionService) Analyze(ctx context.Context, userID, chatID int64) (*entity.CanonicalReport, error) {
	v, err := s.lookup(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	if !v.snapshot().CanAnalyze() {
		v.mu.Unlock()
		return nil, ErrAnalysisUnavailable
	}
	if v.analyzing {
		v.mu.Unlock()
		return nil, ErrBusy
	}
	image := v.current()
	parts := entity.DistinctLabels(v.detections)
	epoch := v.epoch
	v.analyzing = true
	v.analysisErr = ""
	v.mu.Unlock()

	rep, err := s.analyzer.Analyze(ctx, image, parts)
	metrics.AnalysesTotal.WithLabelValues(metrics.Result(err)).Inc()

	v.mu.Lock()
	defer v.mu.Unlock()
	if epoch != v.epoch {
		return nil, ErrSuperseded
	}
	v.analyzing = false
	if err != nil {
		log.WithError(err).WithFields(log.Fields{"chat": chatID, "image": image}).Warn("damage analysis failed")
		v.analysisErr = err.Error()
		return nil, err
	}
	v.report = rep
	v.chat.Bind(image, rep)
	return rep, nil
}

// Ask отправляет вопрос в чат по текущему отчёту.
func (s *InspectionService) Ask(ctx context.Context, userID, chatID int64, text string) (entity.ChatMessage, error) {
	v, err := s.lookup(ctx, userID, chatID)
	if err != nil {
		return entity.ChatMessage{}, err
	}
	return v.chat.Send(ctx, text)
}

// Export собирает PDF по текущему изображению, отчёту и детекциям.
func (s *InspectionService) Export(ctx context.Context, userID, chatID int64) (*document.Document, error) {
	v, err := s.lookup(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	in := document.Input{
		ImageName:  v.current(),
		Report:     v.report,
		Detections: append([]entity.Detection(nil), v.detections...),
	}
	v.mu.Unlock()
	if in.Report == nil {
		return nil, entity.ErrNoReport
	}

	doc, err := s.documents.Build(ctx, in)
	metrics.DocumentsTotal.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		return nil, err
	}
	for _, w := range doc.Warnings {
		var assetErr *entity.AssetFetchError
		if errors.As(w, &assetErr) {
			metrics.AssetFailuresTotal.WithLabelValues(assetErr.Asset).Inc()
		}
	}
	return doc, nil
}

// Snapshot текущее состояние просмотра чата.
func (s *InspectionService) Snapshot(chatID int64) (Snapshot, bool) {
	s.mu.RLock()
	v, ok := s.viewers[chatID]
	s.mu.RUnlock()
	if !ok {
		return Snapshot{}, false
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshot(), true
}

// Close останавливает отложенные применения.
func (s *InspectionService) Close() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.viewers {
		v.mu.Lock()
		v.seq++
		if v.timer != nil {
			v.timer.Stop()
			v.timer = nil
		}
		v.mu.Unlock()
	}
}
