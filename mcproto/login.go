package mcproto

// DecodeLoginStart decodes the Login-state start packet, which has three
// observed tail shapes depending on client version:
//
//   - player name only, nothing after it;
//   - player name, a profile-id tag byte (0x00 = no UUID, 0x01 = UUID follows);
//   - player name, immediately followed by a bare 16-byte UUID with no tag.
//
// No field is validated against any expected value; the only obligation is
// to not fail on any of the three shapes.
func DecodeLoginStart(r *ByteReader) (*LoginStart, error) {
	name, err := r.ReadString()
	if err != nil {
		return nil, err
	}

	login := &LoginStart{Name: name}

	profileTag, err := r.ReadByte()
	if err != nil {
		// Frame exhausted right after the name: no UUID.
		return login, nil
	}

	switch profileTag {
	case 0x01:
		u, err := r.ReadUUID()
		if err != nil {
			return nil, err
		}
		login.HasUUID = true
		login.UUID = u
	case 0x00:
		// No UUID.
	default:
		// Not a tag byte after all: it's the first byte of a bare,
		// unprefixed UUID. Rewind and read the UUID only if a full one
		// remains.
		if err := r.Unread(1); err != nil {
			return nil, err
		}
		if r.Remaining() >= 16 {
			u, err := r.ReadUUID()
			if err != nil {
				return nil, err
			}
			login.HasUUID = true
			login.UUID = u
		}
	}

	return login, nil
}
