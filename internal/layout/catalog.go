package layout

import (
	"errors"
	"fmt"
	"strings"
)

// Catalog is an ordered list of descriptors. Detection returns the first
// descriptor that fits, so more specific layouts belong earlier.
type Catalog []Descriptor

// ErrUnrecognizedLayout is matched by errors.Is for every UnrecognizedLayoutError.
var ErrUnrecognizedLayout = errors.New("unrecognized statement layout")

// UnrecognizedLayoutError carries the header no descriptor matched.
type UnrecognizedLayoutError struct {
	Header []string
}

func (e *UnrecognizedLayoutError) Error() string {
	return fmt.Sprintf("%s: [%s]", ErrUnrecognizedLayout, strings.Join(e.Header, ", "))
}

func (e *UnrecognizedLayoutError) Unwrap() error { return ErrUnrecognizedLayout }

// Detect returns the first descriptor whose required columns all appear in header.
func (c Catalog) Detect(header []string) (Descriptor, error) {
	present := make(map[string]struct{}, len(header))
	for _, h := range header {
		present[h] = struct{}{}
	}
	for _, d := range c {
		if d.matchSet(present) {
			return d, nil
		}
	}
	return Descriptor{}, &UnrecognizedLayoutError{Header: append([]string(nil), header...)}
}

// Get returns the descriptor with the given name.
func (c Catalog) Get(name string) (Descriptor, bool) {
	for _, d := range c {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Validate checks every descriptor and rejects duplicate names.
func (c Catalog) Validate() error {
	seen := make(map[string]bool, len(c))
	for _, d := range c {
		if err := d.Validate(); err != nil {
			return err
		}
		if seen[d.Name] {
			return fmt.Errorf("%w: duplicate name %q", ErrInvalidDescriptor, d.Name)
		}
		seen[d.Name] = true
	}
	return nil
}

const (
	compactDateTime = "20060102150405"
	compactDate     = "20060102"
	isoDateTime     = "2006-01-02 15:04:05"
)

// Default returns the built-in catalog.
func Default() Catalog {
	return Catalog{
		gfBank,
		gfThirdParty,
		unionPayJASS,
		investigation,
		qqWallet,
		generic1,
	}
}

var gfBank = Descriptor{
	Name: "国反-银行",
	Time: TimeSpec{Column: "交易时间", Layout: compactDateTime, FallbackLayout: compactDate},
	Shape: Directed{
		AmountColumn: "金额",
		One: EntityRule{
			IDColumn:     "查询账号",
			BankIDColumn: "查询账号",
			NameColumn:   "查询账号姓名",
		},
		Other: EntityRule{
			IDColumn:     "对方账号卡号",
			BankIDColumn: "对方账号卡号",
			NameColumn:   "对方账号姓名",
		},
		DirectionColumn: "借贷标志",
		OutboundMarker:  "借",
		OneIsSubject:    true,
	},
}

var gfThirdParty = Descriptor{
	Name:        "国反-三方",
	DedupColumn: "支付订单号",
	Time:        TimeSpec{Column: "交易时间", Layout: compactDateTime, FallbackLayout: compactDate},
	Shape: Simple{
		AmountColumn: "交易金额",
		From: EntityRule{
			IDColumn:     "付款方的支付帐号",
			BankIDColumn: "付款方银行卡所属银行卡号",
		},
		To: EntityRule{
			IDColumn:     "收款方的支付帐号",
			AltIDColumn:  "收款方的商户号",
			BankIDColumn: "收款方银行卡所属银行卡号",
			NameColumn:   "收款方的商户名称",
		},
		PrimeIDColumn: "支付帐号",
	},
}

// UnionPay exports label several columns with the wrong header; the
// mapping below follows where the data actually is.
var unionPayJASS = Descriptor{
	Name: "银联JASS",
	Time: TimeSpec{Column: "所属发卡银行机构代码", Layout: isoDateTime},
	Shape: Directed{
		AmountColumn: "受理机构代码",
		One: EntityRule{
			IDColumn:     "银行卡号（交易卡号）",
			BankIDColumn: "银行卡号（交易卡号）",
		},
		Other: EntityRule{
			IDColumn:   "交易地点",
			NameColumn: "交易地点",
		},
		DirectionColumn: "交易渠道",
		OutboundMarker:  "消费",
		OneIsSubject:    true,
	},
}

var investigation = Descriptor{
	Name:        "经侦",
	DedupColumn: "交易流水号",
	Time:        TimeSpec{Column: "交易时间", Layout: compactDateTime},
	Shape: Directed{
		AmountColumn: "金额",
		One: EntityRule{
			IDColumn:     "查询账号",
			BankIDColumn: "查询账号",
		},
		Other: EntityRule{
			IDColumn:     "对方账号卡号",
			BankIDColumn: "对方账号卡号",
			NameColumn:   "对方账号姓名",
		},
		DirectionColumn: "借贷标志",
		OutboundMarker:  "借",
		OneIsSubject:    true,
	},
}

// The payment order number column exists in QQ wallet exports but is always
// empty, so it cannot serve as a dedup key.
var qqWallet = Descriptor{
	Name: "QQ钱包",
	Time: TimeSpec{Column: "交易时间", Layout: isoDateTime},
	Shape: Simple{
		AmountColumn: "交易金额",
		From: EntityRule{
			IDColumn:     "付款方支付账号",
			BankIDColumn: "付款银行卡号",
			NameColumn:   "付款方开户名",
		},
		To: EntityRule{
			IDColumn:     "收款支付帐号",
			BankIDColumn: "收款银行卡号",
			NameColumn:   "收款方的商户名称",
		},
	},
}

// In this export the direction flag is not relative to the queried account.
var generic1 = Descriptor{
	Name: "通用格式-1",
	Time: TimeSpec{Column: "交易日期", Layout: isoDateTime},
	Shape: Directed{
		AmountColumn: "交易金额",
		One: EntityRule{
			IDColumn:   "查询账户",
			NameColumn: "查询姓名",
		},
		Other: EntityRule{
			IDColumn:   "对方账户",
			NameColumn: "对方姓名",
		},
		DirectionColumn: "借贷标识",
		OutboundMarker:  "出",
		OneIsSubject:    false,
	},
}
