// 시간 추상화 (윈도우 만료를 결정적으로 테스트하기 위함)
//
// 운영 코드는 Real(), 테스트는 NewFake() 사용

package clock

import "time"

// Clock - Aggregator가 사용하는 time 패키지 기능
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) *Ticker
}

// Ticker - C로 틱 전달 (Stop 후에도 C는 닫히지 않음)
type Ticker struct {
	C <-chan time.Time

	stop func()
}

func (t *Ticker) Stop() { t.stop() }

type realClock struct{}

// Real - time 패키지 기반 Clock
func Real() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) NewTicker(d time.Duration) *Ticker {
	t := time.NewTicker(d)
	return &Ticker{C: t.C, stop: t.Stop}
}
