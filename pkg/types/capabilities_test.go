package types

import (
	"testing"
)

func TestSupportLevelStrings(t *testing.T) {
	if LiquidSupportNone.String() != "none" || LiquidSupportLite.String() != "lite" {
		t.Error("LiquidSupportLevel string mapping broken")
	}
	if AESupportNone.String() != "none" ||
		AESupportOptional.String() != "optional" ||
		AESupportMandatory.String() != "mandatory" {
		t.Error("AESupportLevel string mapping broken")
	}
}

func TestParseSupportLevels(t *testing.T) {
	if ParseLiquidSupportLevel("lite") != LiquidSupportLite {
		t.Error(`ParseLiquidSupportLevel("lite") != LiquidSupportLite`)
	}
	// 未知值取最保守级别
	if ParseLiquidSupportLevel("full") != LiquidSupportNone {
		t.Error("unknown liquid level must parse as none")
	}
	if ParseAESupportLevel("mandatory") != AESupportMandatory {
		t.Error(`ParseAESupportLevel("mandatory") != AESupportMandatory`)
	}
	if ParseAESupportLevel("whatever") != AESupportNone {
		t.Error("unknown ae level must parse as none")
	}
}
