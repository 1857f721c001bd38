package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Source loading (1000-1999)
	LoadInfo             Code = 1000
	LoadBadPattern       Code = 1001
	LoadFileError        Code = 1002
	LoadAmbiguousLibrary Code = 1003
	LoadIncludeCycle     Code = 1004

	// Library map documents (2000-2999)
	MapInfo             Code = 2000
	MapUnexpectedMember Code = 2001
	MapExpectSemicolon  Code = 2002
	MapExpectFilePath   Code = 2003
	MapExpectLibName    Code = 2004
	MapUnclosedConfig   Code = 2005
	MapBadFileSpec      Code = 2006

	// Parameter elaboration (3000-3999)
	ElabInfo                     Code = 3000
	ElabMixingParamAssignments   Code = 3001
	ElabDuplicateParamAssignment Code = 3002
	ElabTooManyParamAssignments  Code = 3003
	ElabParamDoesNotExist        Code = 3004
	ElabAssignedToLocalPortParam Code = 3005
	ElabAssignedToLocalBodyParam Code = 3006
	ElabParamHasNoValue          Code = 3007
	ElabBadTypeParamExpr         Code = 3008
)

var codeDescription = map[Code]string{
	UnknownCode: "Unknown error",

	LoadInfo:             "Source loading information",
	LoadBadPattern:       "Malformed file pattern",
	LoadFileError:        "Unable to read source file",
	LoadAmbiguousLibrary: "File claimed by multiple libraries with equal specificity",
	LoadIncludeCycle:     "Library map include cycle",

	MapInfo:             "Library map information",
	MapUnexpectedMember: "Unexpected library map member",
	MapExpectSemicolon:  "Expected ';' in library map",
	MapExpectFilePath:   "Expected quoted file path",
	MapExpectLibName:    "Expected library name",
	MapUnclosedConfig:   "Unterminated config declaration",
	MapBadFileSpec:      "Invalid file path specification",

	ElabInfo:                     "Elaboration information",
	ElabMixingParamAssignments:   "Mixing ordered and named parameter assignments",
	ElabDuplicateParamAssignment: "Duplicate parameter assignment",
	ElabTooManyParamAssignments:  "Too many parameter assignments",
	ElabParamDoesNotExist:        "Parameter does not exist",
	ElabAssignedToLocalPortParam: "Cannot assign to localparam in parameter port list",
	ElabAssignedToLocalBodyParam: "Cannot assign to localparam",
	ElabParamHasNoValue:          "Parameter has no value",
	ElabBadTypeParamExpr:         "Invalid type parameter expression",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LDR%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("MAP%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("ELB%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
