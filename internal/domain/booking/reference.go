package booking

import (
	"crypto/sha1"
	"encoding/hex"
	"strconv"
)

// ReferenceLength は参照番号の16進文字数
const ReferenceLength = 8

// ReferenceAllocator は乗客情報と連番から予約参照番号を導出する
type ReferenceAllocator interface {
	Allocate(p Passenger, sequence int) string
}

// SHA1Allocator は passport || firstName || lastName || sequence の SHA-1 先頭を参照番号とする
// 状態を持たない純粋関数
type SHA1Allocator struct{}

// Allocate は参照番号を返す
func (SHA1Allocator) Allocate(p Passenger, sequence int) string {
	sum := sha1.Sum([]byte(p.Passport + p.FirstName + p.LastName + strconv.Itoa(sequence)))
	return hex.EncodeToString(sum[:])[:ReferenceLength]
}

var _ ReferenceAllocator = SHA1Allocator{}
