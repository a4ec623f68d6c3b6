package main

import (
	"github.com/ChizhovVadim/ccheck/pkg/common"
)

const (
	gameResultDraw = iota
	gameResultWhiteWins
	gameResultBlackWins
)

type timeControl struct {
	DepthA   int
	DepthB   int
	MaxPlies int
}

type gameInfo struct {
	opening        []common.Move
	engineAIsWhite bool
	gameNumber     int
}

type gameResult struct {
	gameInfo gameInfo
	moves    []common.Move
	comment  string
	result   int
}
