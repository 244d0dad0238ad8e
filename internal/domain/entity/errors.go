package entity

import (
	"errors"
	"fmt"
)

// ErrInvalidDimensions возвращается при нулевых или отрицательных размерах изображения.
var ErrInvalidDimensions = errors.New("invalid image dimensions")

// ErrNoReport для операции нужен отчёт об анализе повреждений.
var ErrNoReport = errors.New("no damage report yet")

// ErrNoImages бэкенд не вернул ни одного изображения.
var ErrNoImages = errors.New("no images available")

// ServiceError ошибка внешнего сервиса; Error() отдаёт текст, пригодный для показа пользователю.
type ServiceError struct {
	Op     string // predict, damage-analysis, chat, images
	Status int    // HTTP-статус, 0 если ответа не было
	Detail string
}

func (e *ServiceError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return defaultServiceMessage(e.Op)
}

func defaultServiceMessage(op string) string {
	switch op {
	case "predict":
		return "Prediction failed."
	case "damage-analysis":
		return "Damage analysis failed."
	case "chat":
		return "Chat failed."
	case "images":
		return "Failed to load images from backend."
	}
	return "Request failed."
}

// AssetFetchError изображение для документа не удалось получить или декодировать.
type AssetFetchError struct {
	Asset string // original или annotated
	Err   error
}

func (e *AssetFetchError) Error() string {
	return fmt.Sprintf("%s image unavailable: %v", e.Asset, e.Err)
}

func (e *AssetFetchError) Unwrap() error {
	return e.Err
}
