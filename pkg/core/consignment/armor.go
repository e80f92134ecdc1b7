package consignment

import (
	"encoding/pem"
	"fmt"
	"strconv"
	"strings"
)

const armorType = "SEAL CONSIGNMENT"

// Armor header names.
const (
	ArmorHeaderID       = "Id"
	ArmorHeaderVersion  = "Version"
	ArmorHeaderType     = "Type"
	ArmorHeaderTerminal = "Terminal"
)

// Armor returns c as ASCII armored text: the CBOR encoding wrapped in a PEM
// block with descriptive headers. The Terminal header lists the terminal
// seals as TerminalSeals renders them, comma separated.
func (c *Consignment) Armor() ([]byte, error) {
	data, err := c.MarshalBinary()
	if err != nil {
		return nil, err
	}
	terminals, err := c.TerminalSeals()
	if err != nil {
		return nil, err
	}
	headers := map[string]string{
		ArmorHeaderID:      c.ID.String(),
		ArmorHeaderVersion: strconv.FormatUint(uint64(c.Version), 10),
		ArmorHeaderType:    c.Type(),
		"Seals":            strconv.Itoa(len(c.Seals)),
		"Witnesses":        strconv.Itoa(len(c.Witnesses)),
		"Assignments":      strconv.Itoa(len(c.Assignments)),
	}
	if len(terminals) > 0 {
		headers[ArmorHeaderTerminal] = strings.Join(terminals, ", ")
	}
	return pem.EncodeToMemory(&pem.Block{Type: armorType, Headers: headers, Bytes: data}), nil
}

// ParseArmored decodes text produced by Armor. Id, Type and Terminal headers,
// when present, must agree with the decoded consignment.
func ParseArmored(text []byte) (*Consignment, error) {
	block, _ := pem.Decode(text)
	if block == nil {
		return nil, fmt.Errorf("%w: no armored block", ErrMalformedConsignment)
	}
	if block.Type != armorType {
		return nil, fmt.Errorf("%w: unexpected armor type %q", ErrMalformedConsignment, block.Type)
	}
	c := new(Consignment)
	if err := c.UnmarshalBinary(block.Bytes); err != nil {
		return nil, err
	}

	if id := block.Headers[ArmorHeaderID]; id != "" && id != c.ID.String() {
		return nil, fmt.Errorf("%w: armor header id %s does not match %s", ErrMalformedConsignment, id, c.ID.String())
	}
	if typ := block.Headers[ArmorHeaderType]; typ != "" && typ != c.Type() {
		return nil, fmt.Errorf("%w: armor header type %s does not match %s", ErrMalformedConsignment, typ, c.Type())
	}
	if header, ok := block.Headers[ArmorHeaderTerminal]; ok {
		terminals, err := c.TerminalSeals()
		if err != nil {
			return nil, err
		}
		if header != strings.Join(terminals, ", ") {
			return nil, fmt.Errorf("%w: armor header terminals do not match the consignment", ErrMalformedConsignment)
		}
	}
	return c, nil
}
