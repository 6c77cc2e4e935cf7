package gann

import (
	"errors"
	"math"
)

var ErrInvalidPrice = errors.New("Некорректная цена якоря.")

type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

const DefaultTick = 0.5

// Углы Ганна, по возрастанию. Индексы в последовательности фиксированы:
// вход берётся из восходящего ряда, стоп — из нисходящего, цель — последний уровень.
var angles = [...]float64{0.02, 0.04, 0.08, 0.1, 0.15, 0.25, 0.35,
	0.40, 0.42, 0.46, 0.48, 0.5, 0.67, 1.0}

const (
	buyIndex      = 4
	stoplossIndex = 5
)

// Levels считает все 14 уровней от якорной цены: (sqrt(anchor) ± angle)^2,
// с округлением к ближайшему тику. При anchor <= 0 возвращает ErrInvalidPrice.
// На очень малых якорях соседние уровни после округления могут совпадать.
// При anchor < 1 нисходящий ряд на старших углах теряет монотонность:
// sqrt(anchor) - angle проходит через ноль и квадрат снова растёт.
func Levels(anchor float64, direction Direction, tick float64) ([]float64, error) {
	if anchor <= 0 {
		return nil, ErrInvalidPrice
	}
	if tick <= 0 {
		tick = DefaultTick
	}

	root := math.Sqrt(anchor)
	levels := make([]float64, len(angles))
	for i, angle := range angles {
		v := root + angle
		if direction == DirectionDown {
			v = root - angle
		}
		levels[i] = RoundTick(v*v, tick)
	}
	return levels, nil
}

type Prices struct {
	Buy      float64
	Target   float64
	Stoploss float64
}

// TradePrices выбирает три рабочих уровня из полного ряда.
func TradePrices(anchor, tick float64) (Prices, error) {
	up, err := Levels(anchor, DirectionUp, tick)
	if err != nil {
		return Prices{}, err
	}
	down, err := Levels(anchor, DirectionDown, tick)
	if err != nil {
		return Prices{}, err
	}
	return Prices{
		Buy:      up[buyIndex],
		Target:   up[len(up)-1],
		Stoploss: down[stoplossIndex],
	}, nil
}

// RoundTick округляет цену к ближайшему тику, половина — к чётному.
func RoundTick(price, tick float64) float64 {
	if tick <= 0 {
		return price
	}
	return math.RoundToEven(price/tick) * tick
}
