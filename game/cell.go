package game

import "github.com/lguibr/arcade/content"

// CellData is the content of an occupied grid cell.
type CellData struct {
	Color   [3]int       `json:"color" msgpack:"color"`
	Item    content.Item `json:"item" msgpack:"item"`
	PieceID EntityID     `json:"pieceId" msgpack:"pieceId"`
}

// Cell is one grid slot; X is the column and Y the row. Data is nil when
// empty.
type Cell struct {
	X    int       `json:"x" msgpack:"x"`
	Y    int       `json:"y" msgpack:"y"`
	Data *CellData `json:"data" msgpack:"data"`
}

func NewCell(x, y int, data *CellData) Cell {
	return Cell{X: x, Y: y, Data: data}
}

func (c *Cell) Occupied() bool { return c.Data != nil }

func (c *Cell) Compare(comparedCell Cell) bool {
	if c.X != comparedCell.X || c.Y != comparedCell.Y {
		return false
	}
	if c.Data == nil || comparedCell.Data == nil {
		return c.Data == nil && comparedCell.Data == nil
	}
	return c.Data.Compare(comparedCell.Data)
}

func (data *CellData) Compare(comparedData *CellData) bool {
	return data.Color == comparedData.Color &&
		data.Item == comparedData.Item &&
		data.PieceID == comparedData.PieceID
}
