package aop

// RequireAll 所有字段都必须存在且非空, 否则返回第一个缺失字段的 ValidationError
func RequireAll(p *Params, keys ...string) error {
	for _, key := range keys {
		if !p.Has(key) {
			return &ValidationError{Fields: []string{key}}
		}
	}
	return nil
}

// RequireOne 至少有一个字段存在且非空
func RequireOne(p *Params, keys ...string) error {
	for _, key := range keys {
		if p.Has(key) {
			return nil
		}
	}
	return &ValidationError{Fields: append([]string(nil), keys...), group: true}
}

// RequireBizAll 校验业务参数 biz_content 中的字段, 路径支持点分形式
// 参数:
//   - biz: biz_content 的值, 可以是JSON字符串或结构体/map
//   - paths: 需要存在的字段路径, 例如 "extend_params.sys_service_provider_id"
//
// 返回:
//   - error: 第一个缺失字段的 ValidationError
func RequireBizAll(biz interface{}, paths ...string) error {
	data, err := decodeBiz(biz)
	if err != nil {
		return err
	}
	for _, path := range paths {
		if v, ok := lookupPath(data, path); !ok || isEmpty(v) {
			return &ValidationError{Fields: []string{path}, Scope: FieldBizContent}
		}
	}
	return nil
}

// RequireBizOne 业务参数中至少提供一个字段
func RequireBizOne(biz interface{}, paths ...string) error {
	data, err := decodeBiz(biz)
	if err != nil {
		return err
	}
	for _, path := range paths {
		if v, ok := lookupPath(data, path); ok && !isEmpty(v) {
			return nil
		}
	}
	return &ValidationError{Fields: append([]string(nil), paths...), Scope: FieldBizContent, group: true}
}
