package isolation

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

const resourceFormatVersionCurrent = 1

// Encode serializes a resource to the compact versioned binary layout
// used for Redis values.
func Encode(r *Resource) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(resourceFormatVersionCurrent)

	if len(r.ID) > 255 {
		return nil, errors.New("resource ID too long")
	}
	buf.WriteByte(byte(len(r.ID)))
	buf.WriteString(r.ID)

	if len(r.OwnerID) > 255 {
		return nil, errors.New("ownerID too long")
	}
	buf.WriteByte(byte(len(r.OwnerID)))
	buf.WriteString(r.OwnerID)

	if len(r.Title) > 255 {
		return nil, errors.New("title too long")
	}
	buf.WriteByte(byte(len(r.Title)))
	buf.WriteString(r.Title)

	if len(r.Notes) > 65535 {
		return nil, errors.New("notes too long")
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(r.Notes))); err != nil {
		return nil, err
	}
	buf.WriteString(r.Notes)

	if r.Completed {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}

	if err := binary.Write(&buf, binary.BigEndian, r.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, r.UpdatedAt); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode parses a binary resource value.
func Decode(data []byte) (*Resource, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != resourceFormatVersionCurrent {
		return nil, errors.New("invalid resource version")
	}

	r := &Resource{}

	id, err := readShortString(reader)
	if err != nil {
		return nil, err
	}
	r.ID = id

	owner, err := readShortString(reader)
	if err != nil {
		return nil, err
	}
	r.OwnerID = owner

	title, err := readShortString(reader)
	if err != nil {
		return nil, err
	}
	r.Title = title

	var notesLen uint16
	if err := binary.Read(reader, binary.BigEndian, &notesLen); err != nil {
		return nil, err
	}
	notes := make([]byte, notesLen)
	if _, err := io.ReadFull(reader, notes); err != nil {
		return nil, err
	}
	r.Notes = string(notes)

	completed, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	r.Completed = completed == 1

	if err := binary.Read(reader, binary.BigEndian, &r.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &r.UpdatedAt); err != nil {
		return nil, err
	}

	return r, nil
}

func readShortString(reader *bytes.Reader) (string, error) {
	length, err := reader.ReadByte()
	if err != nil {
		return "", err
	}
	value := make([]byte, length)
	if _, err := io.ReadFull(reader, value); err != nil {
		return "", err
	}
	return string(value), nil
}
