package consts

const (
	// Number of system area sectors.
	ISO9660_SYSTEM_AREA_SECTORS = 16

	// Standard ISO9660 identifier.
	ISO9660_STD_IDENTIFIER = "CD001"

	// ISO9660 volume descriptor version (always 1).
	ISO9660_VOLUME_DESC_VERSION = 1

	// ISO9660 default sector size.
	ISO9660_SECTOR_SIZE = 2048

	// ISO9660 volume descriptor header size
	ISO9660_VOLUME_DESC_HEADER_SIZE = 7

	// Size of the data portion of a primary or supplementary volume
	// descriptor (one sector minus the 7 byte header).
	ISO9660_VOLUME_DESC_BODY_SIZE = ISO9660_SECTOR_SIZE - ISO9660_VOLUME_DESC_HEADER_SIZE

	// File structure version recorded in primary and supplementary volume
	// descriptors (always 1).
	ISO9660_FILE_STRUCTURE_VERSION = 1

	// El Torito bootable cdrom system identifier.
	EL_TORITO_BOOT_SYSTEM_ID = "EL TORITO SPECIFICATION"

	// The boot system identifier field of the boot record is wider than the
	// identifier itself and is padded with null bytes.
	EL_TORITO_BOOT_SYSTEM_ID_SIZE = 32

	// Size of one boot catalog entry. A catalog occupies a full sector, so it
	// holds at most 64 entries including the validation entry.
	EL_TORITO_CATALOG_ENTRY_SIZE = 32

	// Header indicator of the El Torito validation entry.
	EL_TORITO_VALIDATION_HEADER_ID = 0x01

	// Key bytes terminating the validation entry.
	EL_TORITO_KEY_BYTE_1 = 0x55
	EL_TORITO_KEY_BYTE_2 = 0xAA

	// Boot indicator values for catalog entries.
	EL_TORITO_BOOT_INDICATOR     = 0x88
	EL_TORITO_NOT_BOOT_INDICATOR = 0x00

	// Section header indicators: 0x90 marks a header with more headers
	// following, 0x91 marks the final header.
	EL_TORITO_SECTION_HEADER_ID      = 0x90
	EL_TORITO_LAST_SECTION_HEADER_ID = 0x91

	// Default load segment used when a boot entry records segment zero.
	EL_TORITO_DEFAULT_LOAD_SEGMENT = 0x07C0

	// a-characters set which are specified in the International Reference Version at the following positions.
	//   | 2/0 - 2/2
	//   | 2/5 - 2/15
	//   | 3/0 - 3/15
	//   | 4/1 - 4/15
	//   | 5/0 - 5/10
	//   | 5/15
	A_CHARACTERS = " !\"%&'()*+,-./0123456789:;<=>?ABCDEFGHIJKLMNOPQRSTUVWXYZ_"

	// d-characters: 37 characters in the following positions of the International Reference Version
	// | 3/0 - 3/9
	// | 4/1 - 5/10
	// | 5/15
	D_CHARACTERS = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ_"

	// Separators allowed by ISO9660 0x2E and 0x3B.
	ISO9660_SEPARATOR_1 = "."
	ISO9660_SEPARATOR_2 = ";"

	// ISO9660 Filler 0x20 (space)
	ISO9660_FILLER = " "

	// Highest file version number allowed after SEPARATOR_2.
	ISO9660_MAX_FILE_VERSION = 32767

	// Maximum byte length of a file identifier (name + extension, excluding
	// separators and version) at interchange levels 2 and 3.
	ISO9660_MAX_FILE_NAME = 30

	// Maximum byte length of a directory identifier.
	ISO9660_MAX_DIR_NAME = 31

	// Interchange level 1 caps: eight characters of name, three of extension.
	ISO9660_LEVEL1_MAX_NAME      = 8
	ISO9660_LEVEL1_MAX_EXTENSION = 3

	// Maximum directory nesting depth when depth limiting is requested.
	ISO9660_MAX_DIR_DEPTH = 8

	// Maximum byte length of a full path.
	ISO9660_MAX_PATH = 255
)
