package toast

import "time"

// Timer 可取消的定时器句柄
type Timer interface {
	Stop() bool
}

// Clock 时间源，测试中可替换
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
