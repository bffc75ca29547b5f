// Package csr provides an in-memory control and status register space that
// stands in for the memory-mapped DFII registers of a PHY.
package csr

import (
	"fmt"
	"sort"
	"sync"
)

// Access is one register access.
type Access struct {
	Addr  uint64
	Value uint64
	Write bool
}

func (a Access) String() string {
	op := "R"
	if a.Write {
		op = "W"
	}

	return fmt.Sprintf("%s %#x %#x", op, a.Addr, a.Value)
}

// Space is a sparse register space that logs every access.
type Space struct {
	lock     sync.Mutex
	regs     map[uint64]uint64
	names    map[uint64]string
	accesses []Access
}

// NewSpace creates an empty register space.
func NewSpace() *Space {
	return &Space{
		regs:  make(map[uint64]uint64),
		names: make(map[uint64]string),
	}
}

// Name gives a register a name.
func (s *Space) Name(addr uint64, name string) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.names[addr] = name
}

// NameOf returns the name of a register, or its address when unnamed.
func (s *Space) NameOf(addr uint64) string {
	s.lock.Lock()
	defer s.lock.Unlock()

	name, ok := s.names[addr]
	if !ok {
		return fmt.Sprintf("%#x", addr)
	}

	return name
}

// Write stores a value.
func (s *Space) Write(addr, value uint64) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.regs[addr] = value
	s.accesses = append(s.accesses, Access{Addr: addr, Value: value, Write: true})
}

// Read returns the last value written to addr, or 0.
func (s *Space) Read(addr uint64) uint64 {
	s.lock.Lock()
	defer s.lock.Unlock()

	v := s.regs[addr]
	s.accesses = append(s.accesses, Access{Addr: addr, Value: v})

	return v
}

// Peek returns the value of a register without logging an access.
func (s *Space) Peek(addr uint64) uint64 {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.regs[addr]
}

// Accesses returns every access in order.
func (s *Space) Accesses() []Access {
	s.lock.Lock()
	defer s.lock.Unlock()

	accesses := make([]Access, len(s.accesses))
	copy(accesses, s.accesses)

	return accesses
}

// Writes returns the write accesses in order.
func (s *Space) Writes() []Access {
	var writes []Access

	for _, a := range s.Accesses() {
		if a.Write {
			writes = append(writes, a)
		}
	}

	return writes
}

// Addresses returns the addresses that hold a value, in ascending order.
func (s *Space) Addresses() []uint64 {
	s.lock.Lock()
	defer s.lock.Unlock()

	addrs := make([]uint64, 0, len(s.regs))
	for a := range s.regs {
		addrs = append(addrs, a)
	}

	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })

	return addrs
}

// Reset forgets every value and access.
func (s *Space) Reset() {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.regs = make(map[uint64]uint64)
	s.accesses = nil
}
