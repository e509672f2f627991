package vehicle

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// 排队前置条件不满足时的可读错误，直接透传给调用方。
var (
	ErrNeedsPhotos      = errors.New("vehicle needs photos first")
	ErrNeedsDescription = errors.New("vehicle needs a description first")
	ErrAlreadyQueued    = errors.New("vehicle already in queue")
	ErrAlreadyPosted    = errors.New("vehicle already posted")
)

// AllowTransition 定义发布状态机的允许流转关系。
// queued -> posting -> posted/failed 这段只允许调度器触发。
var AllowTransition = map[Status][]Status{
	StatusNotPosted: {StatusQueued},
	StatusQueued:    {StatusPosting, StatusNotPosted}, // 回到 not_posted 即“取消排队”
	StatusPosting:   {StatusPosted, StatusFailed},
	StatusFailed:    {StatusQueued},
	// 终态：posted 不再流转
	StatusPosted: {},
}

// CanTransition 判断 from -> to 是否是一个允许的状态流转。
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	allowed, ok := AllowTransition[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// CheckReady 校验车辆是否具备排队发布的前置条件：至少一张照片、
// 非空描述。返回的错误指明缺失项。
func CheckReady(v *Vehicle) error {
	if v == nil {
		return fmt.Errorf("vehicle is nil")
	}
	if len(v.Photos) == 0 {
		return ErrNeedsPhotos
	}
	if strings.TrimSpace(v.Description) == "" {
		return ErrNeedsDescription
	}
	return nil
}

// ApplyTransition 对车辆应用状态变更，并维护关键时间字段。
// 对重复排队/已发布给出专门错误，方便上层直接透传。
func ApplyTransition(v *Vehicle, to Status, now time.Time) error {
	if v == nil {
		return fmt.Errorf("vehicle is nil")
	}
	from := v.Status
	if to == StatusQueued {
		switch from {
		case StatusQueued:
			return ErrAlreadyQueued
		case StatusPosted:
			return ErrAlreadyPosted
		}
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("invalid posting status transition: %s -> %s", from, to)
	}

	v.Status = to

	switch to {
	case StatusQueued:
		t := now
		v.QueuedAt = &t
	case StatusNotPosted:
		// 取消排队，清空排队时间
		v.QueuedAt = nil
	case StatusPosted:
		if v.PostedAt == nil {
			t := now
			v.PostedAt = &t
		}
	}
	return nil
}
